package multiplayer

import "context"

// RoomStore persists room records. It allows rooms to commit state without
// depending on the storage package. Every mutation is committed through the
// store before it is broadcast.
type RoomStore interface {
	// SaveRoom inserts or replaces the record.
	SaveRoom(ctx context.Context, rec RoomRecord) error

	// SaveShot replaces the record and appends entry to the shot log
	// in one transaction.
	SaveShot(ctx context.Context, rec RoomRecord, entry ShotLogEntry) error

	// LoadRoom returns nil, nil when no record exists.
	LoadRoom(ctx context.Context, id RoomID) (*RoomRecord, error)

	// DeleteRoom purges the record and its shot log.
	DeleteRoom(ctx context.Context, id RoomID) error

	// ArchiveMatch keeps the final score line of an evicted room.
	ArchiveMatch(ctx context.Context, a MatchArchive) error
}

// nopStore is used when the manager runs without persistence.
type nopStore struct{}

func (nopStore) SaveRoom(context.Context, RoomRecord) error               { return nil }
func (nopStore) SaveShot(context.Context, RoomRecord, ShotLogEntry) error { return nil }
func (nopStore) LoadRoom(context.Context, RoomID) (*RoomRecord, error)    { return nil, nil }
func (nopStore) DeleteRoom(context.Context, RoomID) error                 { return nil }
func (nopStore) ArchiveMatch(context.Context, MatchArchive) error         { return nil }
