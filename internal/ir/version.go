package ir

// SchemaVersion is the version of the canonical query schema.
// Bump it when a change to normalization alters canonical output.
const SchemaVersion = "1"
