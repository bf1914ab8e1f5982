package store

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS forecast_versions (
    id                   TEXT PRIMARY KEY,
    scenario_key         TEXT NOT NULL,
    label                TEXT NOT NULL,
    summary              TEXT,
    forecast_payload     TEXT NOT NULL,
    drivers              TEXT NOT NULL,
    options              TEXT NOT NULL,
    created_by           TEXT,
    created_at           TEXT NOT NULL,
    created_at_ns        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forecast_versions_created ON forecast_versions(created_at_ns);
CREATE INDEX IF NOT EXISTS idx_forecast_versions_scenario ON forecast_versions(scenario_key);
`

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS forecast_versions (
    id                   UUID PRIMARY KEY,
    scenario_key         TEXT NOT NULL,
    label                TEXT NOT NULL,
    summary              TEXT,
    forecast_payload     JSONB NOT NULL,
    drivers              JSONB NOT NULL,
    options              JSONB NOT NULL,
    created_by           TEXT,
    created_at           TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forecast_versions_created ON forecast_versions(created_at DESC);
`
