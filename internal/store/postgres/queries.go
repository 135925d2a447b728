package postgres

const (
	selectCollectionQuery = `
		SELECT key, value
		FROM records
		WHERE collection = $1
		ORDER BY seq
	`

	// Only string fields match, as in store.Query.Matches.
	selectFilteredQuery = `
		SELECT key, value
		FROM records
		WHERE collection = $1
		  AND jsonb_typeof(value -> $2::text) = 'string'
		  AND value ->> $2::text = $3
		ORDER BY seq
	`

	selectRecordQuery = `
		SELECT value
		FROM records
		WHERE collection = $1 AND key = $2
	`

	selectFieldQuery = `
		SELECT value -> $3::text
		FROM records
		WHERE collection = $1 AND key = $2
	`

	upsertRecordQuery = `
		INSERT INTO records (collection, key, value)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`

	upsertFieldQuery = `
		INSERT INTO records (collection, key, value)
		VALUES ($1, $2, jsonb_build_object($3::text, $4::jsonb))
		ON CONFLICT (collection, key) DO UPDATE
		SET value = records.value || jsonb_build_object($3::text, $4::jsonb), updated_at = NOW()
	`

	deleteRecordQuery = `
		DELETE FROM records
		WHERE collection = $1 AND key = $2
	`

	deleteFieldQuery = `
		UPDATE records
		SET value = value - $3::text, updated_at = NOW()
		WHERE collection = $1 AND key = $2
	`

	addToSetQuery = `
		INSERT INTO records (collection, key, value)
		VALUES ($1, $2, jsonb_build_object($3::text, jsonb_build_array($4::text)))
		ON CONFLICT (collection, key) DO UPDATE
		SET value = jsonb_set(
				records.value,
				ARRAY[$3::text],
				CASE
					WHEN COALESCE(jsonb_typeof(records.value -> $3::text), '') <> 'array'
						THEN jsonb_build_array($4::text)
					WHEN (records.value -> $3::text) ? $4::text
						THEN records.value -> $3::text
					ELSE (records.value -> $3::text) || jsonb_build_array($4::text)
				END,
				true),
			updated_at = NOW()
	`

	removeFromSetQuery = `
		UPDATE records
		SET value = jsonb_set(value, ARRAY[$3::text], (value -> $3::text) - $4::text, true),
			updated_at = NOW()
		WHERE collection = $1 AND key = $2
		  AND jsonb_typeof(value -> $3::text) = 'array'
	`

	notifyQuery = `SELECT pg_notify($1, $2)`
)
