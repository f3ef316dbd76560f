package db

const (
	queryGetUserByID = `SELECT id, username, email, is_service_account FROM users WHERE id = $1`

	queryGetCredential = `SELECT id, user_id, type, device_name, secret, created_at
FROM credentials WHERE user_id = $1 AND type = $2 AND device_name = $3`

	queryListCredentials = `SELECT id, user_id, type, device_name, secret, created_at
FROM credentials WHERE user_id = $1 AND type = $2 ORDER BY created_at, id`

	queryInsertCredential = `INSERT INTO credentials (id, user_id, type, device_name, secret, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	queryDeleteCredential = `DELETE FROM credentials WHERE user_id = $1 AND type = $2 AND device_name = $3`
)
