package chesspresenter

import (
	"errors"
	"strings"

	"github.com/park285/cheese-chess/internal/pvpchan"
	"github.com/park285/cheese-chess/internal/pvpchess"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

var errorCodes = []struct {
	target    error
	code      string
	retryable bool
}{
	{pvpchess.ErrNoActiveGame, chessdto.CodeNoGame, false},
	{pvpchess.ErrNotParticipant, chessdto.CodeNoGame, false},
	{pvpchess.ErrNotYourTurn, chessdto.CodeNotYourTurn, false},
	{pvpchess.ErrIllegalMove, chessdto.CodeIllegalMove, false},
	{pvpchess.ErrMalformedMove, chessdto.CodeMalformedMove, false},
	{pvpchess.ErrBadSquare, chessdto.CodeBadSquare, false},
	{pvpchess.ErrConflict, chessdto.CodeConflict, true},
	{pvpchess.ErrGameOver, chessdto.CodeGameOver, false},
	{pvpchan.ErrChannelGone, chessdto.CodeLobbyNotFound, false},
	{pvpchan.ErrChannelActive, chessdto.CodeLobbyActive, false},
	{pvpchan.ErrCreatorHasLobby, chessdto.CodeLobbyWaiting, false},
	{pvpchan.ErrFull, chessdto.CodeLobbyFull, false},
	{pvpchan.ErrSelfJoin, chessdto.CodeSelfJoin, false},
	{pvpchan.ErrPlayerBusyInRoom, chessdto.CodeBusy, false},
}

// ToDomainError maps manager and lobby errors to a user-facing code.
// Unknown errors become CodeInternal.
func ToDomainError(err error) chessdto.DomainError {
	if err == nil {
		return chessdto.DomainError{}
	}
	var de chessdto.DomainError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, pvpchess.ErrNotInitialized) {
		return chessdto.DomainError{Code: chessdto.CodeNoArchive, Message: err.Error()}
	}
	for _, c := range errorCodes {
		if !errors.Is(err, c.target) {
			continue
		}
		out := chessdto.DomainError{Code: c.code, Message: err.Error(), Retryable: c.retryable}
		if c.code == chessdto.CodeLobbyWaiting {
			// wrapped as "<sentinel>: <code>"
			out.Detail = strings.TrimSpace(strings.TrimPrefix(err.Error(), c.target.Error()+":"))
		}
		return out
	}
	return chessdto.DomainError{Code: chessdto.CodeInternal, Message: err.Error()}
}
