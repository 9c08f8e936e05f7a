package multiplayer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gravity-duel/internal/game"
)

// roomCommand is a request processed by the room goroutine.
type roomCommand interface {
	roomCommand()
}

type joinCmd struct {
	ctx   context.Context
	reply chan<- joinReply
}

type joinReply struct {
	res JoinResult
	err error
}

type connectCmd struct {
	player  PlayerID
	session SessionHandle
	reply   chan<- error
}

type disconnectCmd struct {
	player  PlayerID
	session SessionID
}

type deliverCmd struct {
	ctx     context.Context
	player  PlayerID
	session SessionHandle
	msg     ClientMessage
}

type summaryCmd struct {
	reply chan<- RoomSummary
}

type evictCmd struct {
	gen uint64
}

func (joinCmd) roomCommand()       {}
func (connectCmd) roomCommand()    {}
func (disconnectCmd) roomCommand() {}
func (deliverCmd) roomCommand()    {}
func (summaryCmd) roomCommand()    {}
func (evictCmd) roomCommand()      {}

// Room owns one match. All state is confined to the Run goroutine; other
// goroutines talk to it through the inbox.
type Room struct {
	id      RoomID
	rec     RoomRecord
	cfg     ManagerConfig
	store   RoomStore
	logger  *log.Logger
	onEvict func()

	sessions   map[PlayerID]SessionHandle
	evictTimer *time.Timer
	evictGen   uint64

	inbox    chan roomCommand
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newRoom(rec RoomRecord, cfg ManagerConfig, store RoomStore, logger *log.Logger) *Room {
	return &Room{
		id:       rec.ID,
		rec:      rec,
		cfg:      cfg,
		store:    store,
		logger:   logger.With("room", rec.ID),
		sessions: make(map[PlayerID]SessionHandle),
		inbox:    make(chan roomCommand, cfg.InboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the room's join code.
func (r *Room) ID() RoomID {
	return r.id
}

// Run processes commands until the room is stopped or evicted.
func (r *Room) Run() {
	defer close(r.done)

	// A room starts with nobody connected.
	r.armEviction()

	for {
		select {
		case <-r.quit:
			r.cancelEviction()
			return
		case cmd := <-r.inbox:
			if r.handle(cmd) {
				return
			}
		}
	}
}

// Stop shuts the room down without touching persisted state.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
}

func (r *Room) post(cmd roomCommand) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return errRoomClosed
	}
}

// await waits for a reply unless the room shuts down first.
func await[T any](r *Room, ch <-chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-r.done:
		select {
		case v := <-ch:
			return v, nil
		default:
		}
		var zero T
		return zero, errRoomClosed
	}
}

func (r *Room) handle(cmd roomCommand) (stop bool) {
	switch c := cmd.(type) {
	case joinCmd:
		res, err := r.join(c.ctx)
		c.reply <- joinReply{res: res, err: err}
	case connectCmd:
		c.reply <- r.connect(c.player, c.session)
	case disconnectCmd:
		r.disconnect(c.player, c.session)
	case deliverCmd:
		r.deliver(c.ctx, c.player, c.session, c.msg)
	case summaryCmd:
		c.reply <- r.summary()
	case evictCmd:
		return r.evict(c.gen)
	default:
		r.logger.Warn("unknown room command", "type", fmt.Sprintf("%T", cmd))
	}
	return false
}

func (r *Room) join(ctx context.Context) (JoinResult, error) {
	if r.rec.Joined(Player2) {
		return JoinResult{}, ErrRoomFull
	}

	next := r.rec.Clone()
	next.Players[Player2.Index()] = true
	next.Status = StatusPlaying
	if err := r.commit(ctx, next, nil); err != nil {
		return JoinResult{}, err
	}

	r.logger.Info("player joined", "player", Player2)
	r.broadcast(PlayerJoinedEvent{Status: r.rec.Status})
	return JoinResult{RoomID: r.id, PlayerID: Player2, Seed: r.rec.Seed}, nil
}

func (r *Room) connect(player PlayerID, s SessionHandle) error {
	if !r.rec.Joined(player) {
		return ErrInvalidPlayer
	}

	prev, reconnect := r.sessions[player]
	r.sessions[player] = s
	r.cancelEviction()

	if reconnect && prev.ID() != s.ID() {
		r.sendTo(player, prev, errorEvent(ErrStaleSession))
	}
	r.sendTo(player, s, RoomStateEvent{RoomState: r.state(player)})
	if reconnect {
		r.sendOthers(player, PlayerReconnectedEvent{Player: player})
	}

	r.logger.Info("player connected", "player", player, "session", s.ID(), "reconnect", reconnect)
	return nil
}

func (r *Room) disconnect(player PlayerID, sid SessionID) {
	cur, ok := r.sessions[player]
	if !ok || cur.ID() != sid {
		r.logger.Debug("stale disconnect ignored", "player", player, "session", sid)
		return
	}

	delete(r.sessions, player)
	r.logger.Info("player disconnected", "player", player, "session", sid)
	r.broadcast(PlayerDisconnectedEvent{Player: player})

	if len(r.sessions) == 0 {
		r.armEviction()
	}
}

func (r *Room) deliver(ctx context.Context, player PlayerID, s SessionHandle, msg ClientMessage) {
	if cur, ok := r.sessions[player]; !ok || cur.ID() != s.ID() {
		r.reject(player, s, ErrStaleSession)
		return
	}

	var err error
	switch m := msg.(type) {
	case FireMsg:
		err = r.fire(ctx, player, m)
	case ReportResultMsg:
		err = r.report(ctx, player, m)
	default:
		r.logger.Warn("unknown client message", "type", fmt.Sprintf("%T", msg))
		return
	}
	if err != nil {
		r.reject(player, s, err)
	}
}

func (r *Room) fire(ctx context.Context, player PlayerID, m FireMsg) error {
	switch {
	case r.rec.Status != StatusPlaying:
		return ErrNotStarted
	case player != r.rec.Turn:
		return ErrNotYourTurn
	case r.rec.Pending != nil:
		return ErrShotPending
	}
	power, err := r.checkShot(m)
	if err != nil {
		return err
	}

	next := r.rec.Clone()
	next.Pending = &PendingShot{Player: player, Angle: m.Angle, Power: power}
	if err := r.commit(ctx, next, nil); err != nil {
		return err
	}

	r.logger.Debug("shot fired", "player", player, "angle", m.Angle, "power", power)
	r.broadcast(ShotFiredEvent{Player: r.rec.Turn, Angle: m.Angle, Power: power})
	return nil
}

func (r *Room) checkShot(m FireMsg) (int, error) {
	if math.IsNaN(m.Angle) || m.Angle < -180 || m.Angle > 180 {
		return 0, fmt.Errorf("%w: angle %v", ErrInvalidShot, m.Angle)
	}
	p := r.cfg.Params
	if m.Power != math.Trunc(m.Power) || m.Power < float64(p.MinPower) || m.Power > float64(p.MaxPower) {
		return 0, fmt.Errorf("%w: power %v", ErrInvalidShot, m.Power)
	}
	return int(m.Power), nil
}

func (r *Room) report(ctx context.Context, player PlayerID, m ReportResultMsg) error {
	switch {
	case r.rec.Status != StatusPlaying:
		return ErrNotStarted
	case player != r.rec.Turn:
		return ErrNotYourTurn
	case r.rec.Pending == nil:
		return ErrNoPendingShot
	case !m.HitWhat.Valid() || m.Hit != (m.HitWhat == game.HitOpponent):
		return fmt.Errorf("%w: hit=%v hitWhat=%q", ErrInvalidReport, m.Hit, m.HitWhat)
	}

	firer := r.rec.Turn
	shot := *r.rec.Pending

	next := r.rec.Clone()
	if m.Hit {
		next.Scores[firer.Index()]++
		next.Level++
	}
	next.ShotHistory = append(next.ShotHistory, ShotRecord{Player: firer, Result: m.HitWhat})
	if over := len(next.ShotHistory) - r.cfg.HistoryWindow; r.cfg.HistoryWindow > 0 && over > 0 {
		next.ShotHistory = next.ShotHistory[over:]
	}
	next.ShotCount++
	next.Turn = firer.Opponent()
	next.Pending = nil

	entry := ShotLogEntry{
		Seq:     next.ShotCount,
		Player:  firer,
		Level:   r.rec.Level,
		Angle:   shot.Angle,
		Power:   shot.Power,
		Hit:     m.Hit,
		HitWhat: m.HitWhat,
		At:      time.Now(),
	}
	if err := r.commit(ctx, next, &entry); err != nil {
		return err
	}

	r.logger.Info("shot reported", "player", firer, "result", m.HitWhat, "scores", r.rec.Scores, "level", r.rec.Level)
	r.broadcast(ShotResultEvent{
		Hit:     m.Hit,
		HitWhat: m.HitWhat,
		Scores:  r.rec.Scores,
		Level:   r.rec.Level,
		Seed:    r.rec.Seed,
		Turn:    r.rec.Turn,
	})
	return nil
}

// commit persists next (and the shot log entry, if any) and only then makes
// it the live record. On failure the live record is left untouched.
func (r *Room) commit(ctx context.Context, next RoomRecord, entry *ShotLogEntry) error {
	next.UpdatedAt = time.Now()

	ctx, cancel := r.persistContext(ctx)
	defer cancel()

	var err error
	if entry != nil {
		err = r.store.SaveShot(ctx, next, *entry)
	} else {
		err = r.store.SaveRoom(ctx, next)
	}
	if err != nil {
		r.logger.Error("persist failed", "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	r.rec = next
	return nil
}

func (r *Room) persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.cfg.PersistTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.PersistTimeout)
}

func (r *Room) evict(gen uint64) bool {
	if gen != r.evictGen || len(r.sessions) > 0 {
		return false
	}

	ctx, cancel := r.persistContext(context.Background())
	defer cancel()

	if r.rec.Status == StatusPlaying {
		archive := MatchArchive{
			RoomID:    r.id,
			Seed:      r.rec.Seed,
			Level:     r.rec.Level,
			Scores:    r.rec.Scores,
			Winner:    r.rec.Winner(),
			Shots:     r.rec.ShotCount,
			CreatedAt: r.rec.CreatedAt,
			EndedAt:   time.Now(),
		}
		if err := r.store.ArchiveMatch(ctx, archive); err != nil {
			r.logger.Error("archive failed", "err", err)
		}
	}
	if err := r.store.DeleteRoom(ctx, r.id); err != nil {
		r.logger.Error("purge failed", "err", err)
	}

	r.logger.Info("room evicted", "idle", r.cfg.EvictAfter)
	if r.onEvict != nil {
		r.onEvict()
	}
	return true
}

func (r *Room) armEviction() {
	r.cancelEviction()
	if r.cfg.EvictAfter <= 0 {
		return
	}
	gen := r.evictGen
	r.evictTimer = time.AfterFunc(r.cfg.EvictAfter, func() {
		_ = r.post(evictCmd{gen: gen})
	})
}

// cancelEviction stops the pending timer. Bumping the generation also
// invalidates a timer that already fired and queued its command.
func (r *Room) cancelEviction() {
	r.evictGen++
	if r.evictTimer != nil {
		r.evictTimer.Stop()
		r.evictTimer = nil
	}
}

func (r *Room) reject(player PlayerID, s SessionHandle, err error) {
	r.logger.Debug("request rejected", "player", player, "err", err)
	r.sendTo(player, s, errorEvent(err))
}

func (r *Room) broadcast(evt SessionEvent) {
	for _, p := range []PlayerID{Player1, Player2} {
		if s, ok := r.sessions[p]; ok {
			r.sendTo(p, s, evt)
		}
	}
}

func (r *Room) sendOthers(except PlayerID, evt SessionEvent) {
	for _, p := range []PlayerID{Player1, Player2} {
		if s, ok := r.sessions[p]; ok && p != except {
			r.sendTo(p, s, evt)
		}
	}
}

// sendTo delivers best effort; a dead session never fails the caller.
func (r *Room) sendTo(player PlayerID, s SessionHandle, evt SessionEvent) {
	if err := s.Send(evt); err != nil {
		r.logger.Warn("send failed", "player", player, "session", s.ID(), "event", fmt.Sprintf("%T", evt), "err", err)
	}
}

func (r *Room) state(player PlayerID) RoomState {
	rec := r.rec.Clone()
	return RoomState{
		Seed:        rec.Seed,
		Level:       rec.Level,
		Scores:      rec.Scores,
		Turn:        rec.Turn,
		Status:      rec.Status,
		ShotHistory: rec.ShotHistory,
		Players:     rec.Players,
		Pending:     rec.Pending,
		PlayerID:    player,
	}
}

func (r *Room) summary() RoomSummary {
	_, c1 := r.sessions[Player1]
	_, c2 := r.sessions[Player2]
	return RoomSummary{
		ID:        r.id,
		Status:    r.rec.Status,
		Level:     r.rec.Level,
		Scores:    r.rec.Scores,
		Turn:      r.rec.Turn,
		Connected: [2]bool{c1, c2},
	}
}
