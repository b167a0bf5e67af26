package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      device,
                      config)
VALUES (?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    device,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    device,
    config
FROM sessions
ORDER BY start_time`

	insertSamplesSQL = `
INSERT INTO samples (session_id,
                     timestamp,
                     channel,
                     voltage,
                     raw_value,
                     is_trigger)
VALUES `

	selectSamplesSQL = `
SELECT
    timestamp,
    channel,
    voltage,
    raw_value,
    is_trigger
FROM samples
WHERE
    session_id = ?
ORDER BY timestamp, id`
)

//go:embed schema.sql
var schemaSQL string
