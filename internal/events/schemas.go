package events

const activityCreatedSchema = `{
  "type": "object",
  "title": "ActivityCreated",
  "properties": {
    "activity_id": {"type": "string"},
    "title": {"type": "string"},
    "category": {"type": "string"},
    "subcategory": {"type": "string"},
    "sector": {"type": "string"},
    "scheduled_date": {"type": "string"},
    "status": {"type": "string", "enum": ["open", "finished"]},
    "duration": {"type": "string"},
    "photo_count": {"type": "integer"},
    "owner_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "category", "scheduled_date", "status", "duration", "occurred_at"],
  "additionalProperties": false
}`

const activityStatusChangedSchema = `{
  "type": "object",
  "title": "ActivityStatusChanged",
  "properties": {
    "activity_id": {"type": "string"},
    "status": {"type": "string", "enum": ["open", "finished"]},
    "previous_status": {"type": "string"},
    "duration": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "status", "duration", "occurred_at"],
  "additionalProperties": false
}`

const activityDeletedSchema = `{
  "type": "object",
  "title": "ActivityDeleted",
  "properties": {
    "activity_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "occurred_at"],
  "additionalProperties": false
}`
