package database

import (
	"database/sql"
	"fmt"
	"time"
)

const selectEventQuery = `
	SELECT
		e.id,
		e.external_id,
		e.name,
		e.location,
		e.description,
		e.capacity,
		e.event_date,
		e.owner_id,
		a.username,
		(SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id) AS participant_count,
		e.created_at,
		e.updated_at
	FROM events e
	JOIN accounts a ON a.id = e.owner_id
`

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func (db *PgGoSocialRepository) CreateAccount(params CreateAccountParams) (User, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		now,
		now,
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicateAccount
	}

	return u, err
}

func (db *PgGoSocialRepository) GetAccountById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgGoSocialRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgGoSocialRepository) GetAccountByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM accounts "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

// UpdateAccount changes the username and password of an account. Empty
// values keep the current ones.
func (db *PgGoSocialRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	row := db.conn.QueryRow(
		"UPDATE accounts SET "+
			"username = COALESCE(NULLIF($1, ''), username), "+
			"password_hash = COALESCE(NULLIF($2, ''), password_hash), "+
			"updated_at = $3 "+
			"WHERE id = $4 RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
		params.UserId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicateAccount
	}

	return user, err
}

func scanEvent(row scanner) (Event, error) {
	var e Event
	err := row.Scan(
		&e.Id,
		&e.ExternalId,
		&e.Name,
		&e.Location,
		&e.Description,
		&e.Capacity,
		&e.EventDate,
		&e.OwnerId,
		&e.OwnerUsername,
		&e.ParticipantCount,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	return e, err
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (db *PgGoSocialRepository) CreateEvent(params CreateEventParams) (Event, error) {
	now := time.Now().UTC()
	var id int
	err := db.conn.QueryRow(
		"INSERT INTO events (external_id, name, location, description, capacity, event_date, owner_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id",
		params.ExternalId,
		params.Name,
		params.Location,
		params.Description,
		params.Capacity,
		params.EventDate.UTC(),
		params.OwnerId,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return Event{}, err
	}

	return scanEvent(db.conn.QueryRow(selectEventQuery+" WHERE e.id = $1", id))
}

func (db *PgGoSocialRepository) GetEventByExternalId(externalId string) (Event, error) {
	return scanEvent(db.conn.QueryRow(selectEventQuery+" WHERE e.external_id = $1 LIMIT 1", externalId))
}

func (db *PgGoSocialRepository) ListEvents() ([]Event, error) {
	rows, err := db.conn.Query(selectEventQuery + " ORDER BY e.created_at DESC")
	if err != nil {
		return nil, err
	}

	return scanEvents(rows)
}

func (db *PgGoSocialRepository) ListFullEventsByOwner(ownerId int) ([]Event, error) {
	rows, err := db.conn.Query(
		"SELECT * FROM ("+selectEventQuery+" WHERE e.owner_id = $1) AS owned "+
			"WHERE owned.participant_count >= owned.capacity ORDER BY owned.created_at DESC",
		ownerId,
	)
	if err != nil {
		return nil, err
	}

	return scanEvents(rows)
}

func (db *PgGoSocialRepository) DeleteEvent(eventId int) error {
	_, err := db.conn.Exec("DELETE FROM events WHERE id = $1", eventId)
	return err
}

func listParticipants(q querier, eventId int) ([]User, error) {
	rows, err := q.Query(
		"SELECT a.id, a.username FROM event_participants p "+
			"JOIN accounts a ON a.id = p.account_id WHERE p.event_id = $1 ORDER BY p.joined_at",
		eventId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, u)
	}

	return participants, rows.Err()
}

func (db *PgGoSocialRepository) ListParticipants(eventId int) ([]User, error) {
	return listParticipants(db.conn, eventId)
}

// JoinEvent adds the account to the event's participants. The event row is
// locked for the duration of the transaction so the counts in the returned
// JoinResult are exactly the ones the insert observed.
func (db *PgGoSocialRepository) JoinEvent(eventId, accountId int) (JoinResult, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return JoinResult{}, err
	}
	defer tx.Rollback()

	var capacity int
	err = tx.QueryRow("SELECT capacity FROM events WHERE id = $1 FOR UPDATE", eventId).Scan(&capacity)
	if err != nil {
		return JoinResult{}, err
	}

	var joined bool
	err = tx.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND account_id = $2)",
		eventId,
		accountId,
	).Scan(&joined)
	if err != nil {
		return JoinResult{}, err
	}
	if joined {
		return JoinResult{}, ErrAlreadyJoined
	}

	var before int
	err = tx.QueryRow("SELECT COUNT(*) FROM event_participants WHERE event_id = $1", eventId).Scan(&before)
	if err != nil {
		return JoinResult{}, err
	}
	if before >= capacity {
		return JoinResult{}, ErrEventFull
	}

	_, err = tx.Exec(
		"INSERT INTO event_participants (event_id, account_id, joined_at) VALUES ($1, $2, $3)",
		eventId,
		accountId,
		time.Now().UTC(),
	)
	if err != nil {
		return JoinResult{}, err
	}

	participants, err := listParticipants(tx, eventId)
	if err != nil {
		return JoinResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return JoinResult{}, err
	}

	return JoinResult{
		EventId:      eventId,
		BeforeCount:  before,
		AfterCount:   len(participants),
		Capacity:     capacity,
		Participants: participants,
	}, nil
}

func (db *PgGoSocialRepository) LeaveEvent(eventId, accountId int) error {
	res, err := db.conn.Exec(
		"DELETE FROM event_participants WHERE event_id = $1 AND account_id = $2",
		eventId,
		accountId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotJoined
	}

	return nil
}

func (db *PgGoSocialRepository) CreateFriendRequest(requesterId, addresseeId int) (Friendship, error) {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM friendships WHERE "+
			"(requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))",
		requesterId,
		addresseeId,
	).Scan(&exists)
	if err != nil {
		return Friendship{}, err
	}
	if exists {
		return Friendship{}, ErrFriendshipExists
	}

	now := time.Now().UTC()
	var f Friendship
	err = db.conn.QueryRow(
		"INSERT INTO friendships (requester_id, addressee_id, status, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, requester_id, addressee_id, status, created_at, updated_at",
		requesterId,
		addresseeId,
		FriendshipPending,
		now,
		now,
	).Scan(
		&f.Id,
		&f.RequesterId,
		&f.AddresseeId,
		&f.Status,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return Friendship{}, ErrFriendshipExists
	}

	return f, err
}

// RespondFriendRequest accepts or rejects a pending request addressed to
// addresseeId. Rejected requests are deleted.
func (db *PgGoSocialRepository) RespondFriendRequest(requestId, addresseeId int, accept bool) error {
	var (
		res sql.Result
		err error
	)
	if accept {
		res, err = db.conn.Exec(
			"UPDATE friendships SET status = $3, updated_at = $4 "+
				"WHERE id = $1 AND addressee_id = $2 AND status = 'pending'",
			requestId,
			addresseeId,
			FriendshipAccepted,
			time.Now().UTC(),
		)
	} else {
		res, err = db.conn.Exec(
			"DELETE FROM friendships WHERE id = $1 AND addressee_id = $2 AND status = 'pending'",
			requestId,
			addresseeId,
		)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgGoSocialRepository) DeleteFriendship(accountId, friendId int) error {
	res, err := db.conn.Exec(
		"DELETE FROM friendships WHERE status = 'accepted' AND "+
			"((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))",
		accountId,
		friendId,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgGoSocialRepository) ListFriends(accountId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT a.id, a.username FROM friendships f "+
			"JOIN accounts a ON a.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END "+
			"WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'accepted' "+
			"ORDER BY a.username",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Username); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, u)
	}

	return friends, rows.Err()
}

func (db *PgGoSocialRepository) ListPendingFriendRequests(accountId int) ([]Friendship, error) {
	rows, err := db.conn.Query(
		"SELECT f.id, f.requester_id, a.username, f.addressee_id, f.status, f.created_at, f.updated_at "+
			"FROM friendships f JOIN accounts a ON a.id = f.requester_id "+
			"WHERE f.addressee_id = $1 AND f.status = 'pending' ORDER BY f.created_at DESC",
		accountId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]Friendship, 0)
	for rows.Next() {
		var f Friendship
		if err := rows.Scan(
			&f.Id,
			&f.RequesterId,
			&f.RequesterUsername,
			&f.AddresseeId,
			&f.Status,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, f)
	}

	return requests, rows.Err()
}
