package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"split-or-steal/internal/commitment"
	"split-or-steal/internal/game"
	"split-or-steal/internal/identity"
	"split-or-steal/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	DefaultJoinableStart = 1
	DefaultJoinableMax   = 50
)

type Service struct {
	engine      *game.Engine
	ledger      *ledger.Ledger
	maxJoinable int
}

func NewService(engine *game.Engine, l *ledger.Ledger, maxJoinable int) *Service {
	if maxJoinable <= 0 {
		maxJoinable = 100
	}
	return &Service{engine: engine, ledger: l, maxJoinable: maxJoinable}
}

func (s *Service) CreateRoom(ctx context.Context, caller string, req CreateRoomRequest) (RoomView, error) {
	player, err := ParseAddress(caller)
	if err != nil {
		return RoomView{}, err
	}
	id, err := identity.ParseNullifier(req.Nullifier)
	if err != nil {
		return RoomView{}, err
	}
	if req.CommitDeadline <= 0 || req.RevealDeadline <= 0 {
		return RoomView{}, ErrInvalidDeadline
	}
	r, err := s.engine.CreateRoom(ctx, game.CreateRoomInput{
		Player:         player,
		Identity:       id,
		Stake:          req.Stake,
		Value:          valueOr(req.Value, req.Stake),
		CommitDeadline: time.Unix(req.CommitDeadline, 0),
		RevealDeadline: time.Unix(req.RevealDeadline, 0),
	})
	if err != nil {
		return RoomView{}, err
	}
	return ToView(r), nil
}

func (s *Service) JoinRoom(ctx context.Context, caller string, roomID uint64, req JoinRoomRequest) (RoomView, error) {
	player, err := ParseAddress(caller)
	if err != nil {
		return RoomView{}, err
	}
	id, err := identity.ParseNullifier(req.Nullifier)
	if err != nil {
		return RoomView{}, err
	}
	var value int64
	if req.Value != nil {
		value = *req.Value
	} else {
		cur, err := s.engine.GetRoom(ctx, roomID)
		if err != nil {
			return RoomView{}, err
		}
		value = cur.Stake
	}
	r, err := s.engine.JoinRoom(ctx, roomID, game.JoinRoomInput{Player: player, Identity: id, Value: value})
	if err != nil {
		return RoomView{}, err
	}
	return ToView(r), nil
}

func (s *Service) Commit(ctx context.Context, caller string, roomID uint64, req CommitRequest) (RoomView, error) {
	player, err := ParseAddress(caller)
	if err != nil {
		return RoomView{}, err
	}
	id, err := identity.ParseNullifier(req.Nullifier)
	if err != nil {
		return RoomView{}, err
	}
	h, err := commitment.ParseCommitment(req.Commitment)
	if err != nil {
		return RoomView{}, err
	}
	r, err := s.engine.Commit(ctx, roomID, game.CommitInput{Player: player, Identity: id, Commitment: h})
	if err != nil {
		return RoomView{}, err
	}
	return ToView(r), nil
}

func (s *Service) Reveal(ctx context.Context, caller string, roomID uint64, req RevealRequest) (RoomView, error) {
	player, err := ParseAddress(caller)
	if err != nil {
		return RoomView{}, err
	}
	id, err := identity.ParseNullifier(req.Nullifier)
	if err != nil {
		return RoomView{}, err
	}
	packed, err := ParseChoicesJSON(req.Choices)
	if err != nil {
		return RoomView{}, err
	}
	salt, err := commitment.ParseSalt(req.Salt)
	if err != nil {
		return RoomView{}, err
	}
	r, err := s.engine.Reveal(ctx, roomID, game.RevealInput{Player: player, Identity: id, Choices: packed, Salt: salt})
	if err != nil {
		return RoomView{}, err
	}
	return ToView(r), nil
}

func (s *Service) Settle(ctx context.Context, roomID uint64) (SettleResponse, error) {
	st, err := s.engine.Settle(ctx, roomID)
	if err != nil {
		return SettleResponse{}, err
	}
	return SettleResponse{Room: ToView(st.Room), Payout: st.Payout, Credits: st.Credits}, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID uint64) (RoomView, error) {
	r, err := s.engine.GetRoom(ctx, roomID)
	if err != nil {
		return RoomView{}, err
	}
	return ToView(r), nil
}

func (s *Service) ListJoinable(ctx context.Context, start uint64, max int) (JoinableResponse, error) {
	if start == 0 {
		start = DefaultJoinableStart
	}
	if max <= 0 {
		max = DefaultJoinableMax
	}
	if max > s.maxJoinable {
		max = s.maxJoinable
	}
	ids, err := s.engine.ListJoinable(ctx, start, max)
	if err != nil {
		return JoinableResponse{}, err
	}
	resp := JoinableResponse{Items: ids}
	if len(ids) == max {
		resp.Next = ids[len(ids)-1] + 1
	}
	return resp, nil
}

func (s *Service) Withdraw(ctx context.Context, caller string) (ledger.Withdrawal, error) {
	addr, err := ParseAddress(caller)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	return s.ledger.Withdraw(ctx, addr)
}

func (s *Service) Balance(ctx context.Context, address string) (BalanceResponse, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return BalanceResponse{}, err
	}
	bal, err := s.ledger.Balance(ctx, addr)
	if err != nil {
		return BalanceResponse{}, err
	}
	return BalanceResponse{Address: addr.Hex(), Pending: bal}, nil
}

func ToView(r game.Room) RoomView {
	v := RoomView{
		ID:         r.ID,
		Stake:      r.Stake,
		Pot:        r.Pot,
		Phase:      r.Phase.String(),
		Resolution: string(r.Resolution),
	}
	if !r.Exists() {
		return v
	}
	v.CommitDeadline = r.CommitDeadline.Unix()
	v.RevealDeadline = r.RevealDeadline.Unix()
	v.Host = r.Seats[0].Player.Hex()
	for i, seat := range r.Seats {
		if !seat.Joined() {
			continue
		}
		pv := PlayerView{
			Address:   seat.Player.Hex(),
			Nullifier: seat.Identity.Dec(),
			Committed: seat.Committed(),
			Revealed:  seat.Revealed,
		}
		if seat.Committed() {
			pv.Commitment = seat.Commitment.Hex()
		}
		if seat.Revealed {
			choices, _ := commitment.Unpack(seat.Choices)
			pv.Choices = choices[:]
		}
		v.Players[i] = pv
	}
	return v
}

// ParseAddress accepts a 0x-prefixed 20-byte hex address.
func ParseAddress(v string) (common.Address, error) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") {
		return common.Address{}, ledger.ErrInvalidAddress
	}
	b, err := hexutil.Decode(v)
	if err != nil || len(b) != common.AddressLength {
		return common.Address{}, ledger.ErrInvalidAddress
	}
	addr := common.BytesToAddress(b)
	if addr == (common.Address{}) {
		return common.Address{}, ledger.ErrInvalidAddress
	}
	return addr, nil
}

func ParseRoomID(v string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidRoomID
	}
	return id, nil
}

// ParseChoicesJSON accepts 13, [true,false,true,true,false] or
// ["steal","split",...].
func ParseChoicesJSON(raw json.RawMessage) (uint8, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, commitment.ErrInvalidChoices
	}
	if raw[0] != '[' {
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, commitment.ErrInvalidChoices
		}
		return packedFromInt(n)
	}
	var bools []bool
	if err := json.Unmarshal(raw, &bools); err == nil {
		return commitment.Pack(bools)
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return 0, commitment.ErrInvalidChoices
	}
	choices, err := commitment.ParseChoices(words)
	if err != nil {
		return 0, err
	}
	return commitment.Pack(choices)
}

// ParseChoicesText accepts "13" or a comma separated list of five words.
func ParseChoicesText(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return packedFromInt(n)
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	choices, err := commitment.ParseChoices(parts)
	if err != nil {
		return 0, err
	}
	return commitment.Pack(choices)
}

func packedFromInt(n int64) (uint8, error) {
	if n < 0 || n > commitment.MaxPacked {
		return 0, commitment.ErrInvalidChoices
	}
	return uint8(n), nil
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}
