package pvpchess

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-chess/internal/archive"
	"github.com/park285/cheese-chess/internal/domain"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewManager(rdb), mr
}

// newTestGame starts u1 (white, roomA) against u2 (black, roomB).
func newTestGame(t *testing.T, m *Manager) *Game {
	t.Helper()
	g, err := m.CreateGame(context.Background(), Challenge{
		OriginRoom: "roomA", ResolveRoom: "roomB",
		ChallengerID: "u1", ChallengerName: "Alice",
		TargetID: "u2", TargetName: "Bob",
		Color: "white",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return g
}

// seedGame stores a game at an arbitrary position.
func seedGame(t *testing.T, m *Manager, fen string, turn Color) *Game {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	g := &Game{
		ID: "pvp-seed", FEN: fen, Turn: turn, Status: StatusActive,
		WhiteID: "u1", WhiteName: "Alice", BlackID: "u2", BlackName: "Bob",
		OriginRoom: "roomA", ResolveRoom: "roomA", CreatedAt: now, UpdatedAt: now,
	}
	if err := m.save(ctx, g); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		t.Fatalf("index: %v", err)
	}
	return g
}

func play(t *testing.T, m *Manager, user, room string, moves ...string) *MoveResult {
	t.Helper()
	var res *MoveResult
	for _, mv := range moves {
		var err error
		res, err = m.PlayMove(context.Background(), user, room, mv)
		if err != nil {
			t.Fatalf("PlayMove(%s, %s): %v", user, mv, err)
		}
		if user == "u1" {
			user = "u2"
		} else {
			user = "u1"
		}
	}
	return res
}

func TestCreateGameAssignsColorsAndTTL(t *testing.T) {
	m, mr := newTestManager(t)
	g := newTestGame(t, m)
	if g.WhiteID != "u1" || g.BlackID != "u2" || g.Turn != White || g.Status != StatusActive {
		t.Fatalf("unexpected game: %+v", g)
	}
	if ttl := mr.TTL(gameKey(g.ID)); ttl != defaultGameTTL {
		t.Fatalf("game ttl = %v", ttl)
	}
	if ok, _ := mr.SIsMember(idxUserKey("u2"), g.ID); !ok {
		t.Fatalf("black not indexed")
	}

	black, err := m.CreateGame(context.Background(), Challenge{OriginRoom: "r", ChallengerID: "a", TargetID: "b", Color: "black"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if black.WhiteID != "b" || black.BlackID != "a" || black.ResolveRoom != "r" {
		t.Fatalf("black preference ignored: %+v", black)
	}
	if black.WhiteName != "b" {
		t.Fatalf("name should default to id, got %q", black.WhiteName)
	}
}

func TestViewerIn(t *testing.T) {
	m, _ := newTestManager(t)
	g, err := m.CreateGame(context.Background(), Challenge{
		OriginRoom: "roomA", ResolveRoom: "roomB",
		ChallengerID: "u1", TargetID: "u2", Color: "black",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if g.ViewerIn("roomA", "x") != "u1" || g.ViewerIn("roomB", "x") != "u2" || g.ViewerIn("roomC", "x") != "x" {
		t.Fatalf("viewer lookup wrong for %+v", g)
	}
	g.ResolveRoom = g.OriginRoom
	if g.ViewerIn("roomA", "u2") != "u2" {
		t.Fatalf("shared room should use fallback")
	}
}

func TestCreateGameRejectsSelfPlay(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.CreateGame(context.Background(), Challenge{OriginRoom: "r", ChallengerID: "a", TargetID: "a"})
	if !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestPlayMoveFlipsTurnAndRecordsNotation(t *testing.T) {
	m, _ := newTestManager(t)
	newTestGame(t, m)
	res := play(t, m, "u1", "roomA", "e2e4")
	if res.SAN != "e4" || res.Mover != White || res.Check {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Game.Turn != Black || len(res.Game.MovesUCI) != 1 || res.Game.MovesUCI[0] != "e2e4" {
		t.Fatalf("game not advanced: %+v", res.Game)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b - - 0 1"
	if res.Game.FEN != want {
		t.Fatalf("FEN = %q", res.Game.FEN)
	}

	// black plays from the other room
	res = play(t, m, "u2", "roomB", "d7d5")
	res = play(t, m, "u1", "roomA", "e4d5")
	if res.SAN != "exd5" || len(res.Game.CapturedByWhite) != 1 || res.Game.CapturedByWhite[0] != "pawn" {
		t.Fatalf("capture not recorded: %+v", res)
	}
}

func TestPlayMoveRejectsWrongPlayer(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	newTestGame(t, m)

	if _, err := m.PlayMove(ctx, "u2", "roomB", "e7e5"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := m.PlayMove(ctx, "u3", "roomA", "e2e4"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("outsider should have no game, got %v", err)
	}
	if _, err := m.PlayMove(ctx, "u1", "roomC", "e2e4"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("other room should have no game, got %v", err)
	}
}

func TestPlayMoveIllegalLeavesGameUnchanged(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := newTestGame(t, m)

	if _, err := m.PlayMove(ctx, "u1", "roomA", "e2e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if _, err := m.PlayMove(ctx, "u1", "roomA", "Nf3"); !errors.Is(err, ErrMalformedMove) {
		t.Fatalf("expected ErrMalformedMove, got %v", err)
	}
	if _, err := m.PlayMove(ctx, "u1", "roomA", "e7e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("moving the opponent's piece should be illegal, got %v", err)
	}
	cur, err := m.LoadGame(ctx, g.ID)
	if err != nil || cur == nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if cur.FEN != g.FEN || len(cur.MovesUCI) != 0 || cur.Turn != White {
		t.Fatalf("game changed after rejected moves: %+v", cur)
	}
}

func TestCheckmateFinishesAndArchives(t *testing.T) {
	m, _ := newTestManager(t)
	repo := archive.NewMemory()
	m.AttachArchive(repo)
	ctx := context.Background()
	g := newTestGame(t, m)

	res := play(t, m, "u1", "roomA", "f2f3", "e7e5", "g2g4", "d8h4")
	if res.SAN != "Qh4#" || !res.Check || !res.Finished() {
		t.Fatalf("expected mate, got %+v", res)
	}
	if res.Game.Status != StatusFinished || res.Game.Winner != "u2" || res.Game.Outcome != "black" || res.Game.Method != "checkmate" {
		t.Fatalf("unexpected final state: %+v", res.Game)
	}
	if active, _ := m.GetActiveGameByUser(ctx, "u1"); active != nil {
		t.Fatalf("finished game still active")
	}
	if _, err := m.PlayMove(ctx, "u1", "roomA", "a2a3"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected ErrNoActiveGame after mate, got %v", err)
	}

	rec, err := repo.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("archive Get: %v", err)
	}
	if rec.Result != domain.ResultBlack || rec.Method != domain.MethodCheckmate || len(rec.MovesSAN) != 4 || rec.PGN == "" {
		t.Fatalf("unexpected archived record: %+v", rec)
	}
}

func TestStalemateIsDraw(t *testing.T) {
	m, _ := newTestManager(t)
	repo := archive.NewMemory()
	m.AttachArchive(repo)
	g := seedGame(t, m, "7k/4Q3/8/6K1/8/8/8/8 w - - 0 1", White)

	res := play(t, m, "u1", "roomA", "e7f7")
	if res.SAN != "Qf7" || res.Check {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Game.Status != StatusDraw || res.Game.Outcome != "draw" || res.Game.Winner != "" {
		t.Fatalf("expected draw, got %+v", res.Game)
	}
	rec, err := repo.Get(context.Background(), g.ID)
	if err != nil || rec.Result != domain.ResultDraw || rec.Method != domain.MethodStalemate {
		t.Fatalf("archived %+v, %v", rec, err)
	}
}

func TestPromotionThroughManager(t *testing.T) {
	m, _ := newTestManager(t)
	seedGame(t, m, "7k/P7/8/8/8/8/8/K7 w - - 0 1", White)
	ctx := context.Background()
	if _, err := m.PlayMove(ctx, "u1", "roomA", "a7a8"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("promotion without piece should be illegal, got %v", err)
	}
	res := play(t, m, "u1", "roomA", "a7a8q")
	if res.SAN != "a8=Q+" || !res.Check {
		t.Fatalf("unexpected promotion result: %+v", res)
	}
}

func TestResign(t *testing.T) {
	m, _ := newTestManager(t)
	repo := archive.NewMemory()
	m.AttachArchive(repo)
	ctx := context.Background()
	g := newTestGame(t, m)

	done, err := m.Resign(ctx, "u2", "roomB")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if done.Status != StatusResigned || done.Winner != "u1" || done.Outcome != "white" {
		t.Fatalf("unexpected resign state: %+v", done)
	}
	if _, err := m.Resign(ctx, "u2", "roomB"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("second resign should find no game, got %v", err)
	}
	rec, err := repo.Get(ctx, g.ID)
	if err != nil || rec.Method != domain.MethodResign || rec.Result != domain.ResultWhite {
		t.Fatalf("archived %+v, %v", rec, err)
	}

	hist, err := m.History(ctx, "u2", 5)
	if err != nil || len(hist) != 1 || hist[0].GameID != g.ID {
		t.Fatalf("History = %+v, %v", hist, err)
	}
	if got := domain.Tally("u2", hist); got.Losses != 1 || got.Wins != 0 {
		t.Fatalf("tally = %+v", got)
	}
}

func TestHistoryWithoutArchive(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.History(context.Background(), "u1", 5); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestValidMoves(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	newTestGame(t, m)

	h, err := m.ValidMoves(ctx, "u1", "roomA", "e2")
	if err != nil {
		t.Fatalf("ValidMoves: %v", err)
	}
	if len(h.Moves) != 2 || h.Moves[0].String() != "e2e3" || h.Moves[1].String() != "e2e4" {
		t.Fatalf("unexpected hints %v", h.Moves)
	}
	if h, err := m.ValidMoves(ctx, "u1", "roomA", "e4"); err != nil || len(h.Moves) != 0 {
		t.Fatalf("empty square should give no moves: %v %v", h, err)
	}
	if _, err := m.ValidMoves(ctx, "u1", "roomA", "z9"); !errors.Is(err, ErrBadSquare) {
		t.Fatalf("expected ErrBadSquare, got %v", err)
	}
}

func TestConcurrentMovesApplyOnce(t *testing.T) {
	m, _ := newTestManager(t)
	g := newTestGame(t, m)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.PlayMove(ctx, "u1", "roomA", "e2e4")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				applied++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("applied %d times, want 1 (errors: %v)", applied, errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotYourTurn) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	cur, _ := m.LoadGame(ctx, g.ID)
	if len(cur.MovesUCI) != 1 {
		t.Fatalf("moves = %v", cur.MovesUCI)
	}
}

func TestToDTORendersPerViewer(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	g := newTestGame(t, m)

	white, err := m.ToDTO(ctx, g, "u1")
	if err != nil || white == nil || len(white.BoardImage) == 0 {
		t.Fatalf("white view: %v", err)
	}
	black, err := m.ToDTO(ctx, g, "u2")
	if err != nil || black == nil || len(black.BoardImage) == 0 {
		t.Fatalf("black view: %v", err)
	}
	if bytes.Equal(white.BoardImage, black.BoardImage) {
		t.Fatalf("expected flipped image for black")
	}
	if white.Material.White != 39 || white.Material.Black != 39 {
		t.Fatalf("material = %+v", white.Material)
	}

	res := play(t, m, "u1", "roomA", "e2e4", "f7f6", "d1h5")
	sum, err := m.MoveDTO(ctx, res, "u1")
	if err != nil {
		t.Fatalf("MoveDTO: %v", err)
	}
	if !sum.Check || !sum.View.InCheck || sum.PlayerSAN != "Qh5+" || sum.Player != "Alice" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestHintDTODeduplicatesPromotionTargets(t *testing.T) {
	m, _ := newTestManager(t)
	seedGame(t, m, "7k/P7/8/8/8/8/8/K7 w - - 0 1", White)
	ctx := context.Background()
	h, err := m.ValidMoves(ctx, "u1", "roomA", "a7")
	if err != nil {
		t.Fatalf("ValidMoves: %v", err)
	}
	if len(h.Moves) != 4 {
		t.Fatalf("want 4 promotion moves, got %v", h.Moves)
	}
	view, err := m.HintDTO(ctx, h, "u1")
	if err != nil {
		t.Fatalf("HintDTO: %v", err)
	}
	if len(view.Targets) != 1 || view.Targets[0] != "a8" || view.Square != "a7" {
		t.Fatalf("unexpected hint view %+v", view)
	}
}

func TestSetTTL(t *testing.T) {
	m, mr := newTestManager(t)
	m.SetTTL(time.Hour)
	g := newTestGame(t, m)
	if ttl := mr.TTL(gameKey(g.ID)); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
	play(t, m, "u1", "roomA", "e2e4")
	if ttl := mr.TTL(idxUserKey("u1")); ttl != time.Hour {
		t.Fatalf("index ttl = %v", ttl)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := ParseRedisURL(" "); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
