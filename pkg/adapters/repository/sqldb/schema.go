package sqldb

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ecli TEXT NOT NULL,
	country TEXT NOT NULL,
	court TEXT NOT NULL,
	year INTEGER NOT NULL,
	identifier TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	meta TEXT NOT NULL DEFAULT '{}',
	labels TEXT NOT NULL DEFAULT '[]',
	lang TEXT NOT NULL DEFAULT '',
	appeal TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'new',
	views_hash INTEGER NOT NULL DEFAULT 0,
	views_public INTEGER NOT NULL DEFAULT 0,
	owner_key TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_documents_ecli ON documents(ecli);
CREATE INDEX IF NOT EXISTS idx_documents_index ON documents(status, country, court, year);

CREATE TABLE IF NOT EXISTS document_links (
	document_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	target_type TEXT NOT NULL,
	target_identifier TEXT NOT NULL,
	target_label TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (document_id, position),
	FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS labels (
	label TEXT PRIMARY KEY,
	category TEXT NOT NULL DEFAULT 'user_defined'
);

CREATE TABLE IF NOT EXISTS users (
	email TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	user_key TEXT UNIQUE,
	admin BOOLEAN NOT NULL DEFAULT 0,
	valid BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	ecli TEXT NOT NULL,
	country TEXT NOT NULL,
	court TEXT NOT NULL,
	year INTEGER NOT NULL,
	identifier TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	meta JSONB NOT NULL DEFAULT '{}',
	labels JSONB NOT NULL DEFAULT '[]',
	lang TEXT NOT NULL DEFAULT '',
	appeal TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'new',
	views_hash BIGINT NOT NULL DEFAULT 0,
	views_public BIGINT NOT NULL DEFAULT 0,
	owner_key TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT now(),
	updated_at TIMESTAMPTZ DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_documents_ecli ON documents(ecli);
CREATE INDEX IF NOT EXISTS idx_documents_index ON documents(status, country, court, year);

CREATE TABLE IF NOT EXISTS document_links (
	document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	target_type TEXT NOT NULL,
	target_identifier TEXT NOT NULL,
	target_label TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (document_id, position)
);

CREATE TABLE IF NOT EXISTS labels (
	label TEXT PRIMARY KEY,
	category TEXT NOT NULL DEFAULT 'user_defined'
);

CREATE TABLE IF NOT EXISTS users (
	email TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	user_key TEXT UNIQUE,
	admin BOOLEAN NOT NULL DEFAULT FALSE,
	valid BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ DEFAULT now()
);
`
