package store

// Month column value 12 holds the FY figure of a coefficient row.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS plants (
    plant_id             TEXT PRIMARY KEY,
    reforecast_month     INTEGER NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS formats (
    plant_id             TEXT NOT NULL REFERENCES plants(plant_id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    name                 TEXT NOT NULL,
    PRIMARY KEY (plant_id, position)
);

CREATE TABLE IF NOT EXISTS format_values (
    plant_id             TEXT NOT NULL REFERENCES plants(plant_id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    series               TEXT NOT NULL,
    kpi                  TEXT NOT NULL DEFAULT '',
    month                INTEGER NOT NULL,
    value                REAL NOT NULL,
    PRIMARY KEY (plant_id, position, series, kpi, month)
);

CREATE INDEX IF NOT EXISTS idx_values_plant ON format_values(plant_id);
`

const (
	seriesVolume      = "volume"
	seriesCoefficient = "coefficient"
	seriesOverride    = "override"

	fyMonth = 12
)
