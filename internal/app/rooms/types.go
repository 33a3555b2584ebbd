package rooms

import (
	"encoding/json"

	"split-or-steal/internal/game"
	"split-or-steal/internal/ledger"
)

type CreateRoomRequest struct {
	Stake int64 `json:"stake"`
	// Value is the amount attached to the call. Omitted means exactly Stake.
	Value          *int64 `json:"value,omitempty"`
	CommitDeadline int64  `json:"commit_deadline"`
	RevealDeadline int64  `json:"reveal_deadline"`
	Nullifier      string `json:"nullifier"`
}

type JoinRoomRequest struct {
	Value     *int64 `json:"value,omitempty"`
	Nullifier string `json:"nullifier"`
}

type CommitRequest struct {
	Commitment string `json:"commitment"`
	Nullifier  string `json:"nullifier"`
}

// RevealRequest carries choices as a packed integer, five booleans or five
// "steal"/"split" words.
type RevealRequest struct {
	Choices   json.RawMessage `json:"choices"`
	Salt      string          `json:"salt"`
	Nullifier string          `json:"nullifier"`
}

type RoomView struct {
	ID             uint64        `json:"id"`
	Stake          int64         `json:"stake"`
	Pot            int64         `json:"pot"`
	Phase          string        `json:"phase"`
	Resolution     string        `json:"resolution,omitempty"`
	CommitDeadline int64         `json:"commit_deadline"`
	RevealDeadline int64         `json:"reveal_deadline"`
	Host           string        `json:"host"`
	Players        [2]PlayerView `json:"players"`
}

type PlayerView struct {
	Address    string `json:"address,omitempty"`
	Nullifier  string `json:"nullifier,omitempty"`
	Committed  bool   `json:"committed"`
	Commitment string `json:"commitment,omitempty"`
	Revealed   bool   `json:"revealed"`
	Choices    []bool `json:"choices,omitempty"`
}

type SettleResponse struct {
	Room    RoomView       `json:"room"`
	Payout  game.Payout    `json:"payout"`
	Credits []ledger.Entry `json:"credits"`
}

type JoinableResponse struct {
	Items []uint64 `json:"items"`
	// Next is the id to resume scanning from, 0 when the scan reached the end.
	Next uint64 `json:"next,omitempty"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Pending int64  `json:"pending"`
}
