package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS catalog_places (
    position  INTEGER PRIMARY KEY,
    url       TEXT NOT NULL,
    place_id  INTEGER NOT NULL DEFAULT 0,
    name      TEXT NOT NULL,
    region    TEXT NOT NULL DEFAULT '',
    lat       REAL NOT NULL DEFAULT 0,
    lon       REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog_meta (
    id        INTEGER PRIMARY KEY CHECK (id = 1),
    saved_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_places_url ON catalog_places(url);
`

const deletePlacesSQL = `DELETE FROM catalog_places`

const insertPlaceSQL = `
INSERT INTO catalog_places (position, url, place_id, name, region, lat, lon)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const upsertMetaSQL = `
INSERT INTO catalog_meta (id, saved_at) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at
`

const selectPlacesSQL = `
SELECT place_id, name, region, url, lat, lon
FROM catalog_places
ORDER BY position
`

const selectMetaSQL = `SELECT saved_at FROM catalog_meta WHERE id = 1`
