package db

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "create kv snapshot table",
		sql: `
			CREATE TABLE IF NOT EXISTS kv (
				key TEXT PRIMARY KEY,
				value BLOB NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
}
