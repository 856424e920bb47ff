package app

import (
	"sort"
	"time"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/rs/zerolog/log"
)

// PendingRequests holds outstanding join requests keyed by request id.
// Take is the only way out, so a request resolves at most once.
type PendingRequests struct {
	byID map[domain.RequestID]*domain.JoinRequest
}

func NewPendingRequests() *PendingRequests {
	return &PendingRequests{byID: make(map[domain.RequestID]*domain.JoinRequest)}
}

func (p *PendingRequests) Len() int { return len(p.byID) }

func (p *PendingRequests) Add(req *domain.JoinRequest) {
	p.byID[req.ID] = req
	log.Info().Str("module", "app.pending").Str("request", string(req.ID)).Str("room", string(req.RoomID)).Str("sid", req.Owner).Msg("request added")
}

func (p *PendingRequests) Get(id domain.RequestID) (*domain.JoinRequest, bool) {
	req, ok := p.byID[id]
	return req, ok
}

// Take removes and returns the request.
func (p *PendingRequests) Take(id domain.RequestID) (*domain.JoinRequest, bool) {
	req, ok := p.byID[id]
	if ok {
		delete(p.byID, id)
		log.Info().Str("module", "app.pending").Str("request", string(id)).Msg("request removed")
	}
	return req, ok
}

func (p *PendingRequests) OwnedBy(sid core.SessionID) []*domain.JoinRequest {
	return p.filter(func(r *domain.JoinRequest) bool { return r.Owner == string(sid) })
}

func (p *PendingRequests) ForRoom(id domain.RoomID) []*domain.JoinRequest {
	return p.filter(func(r *domain.JoinRequest) bool { return r.RoomID == id })
}

func (p *PendingRequests) Expired(now time.Time) []*domain.JoinRequest {
	return p.filter(func(r *domain.JoinRequest) bool { return r.Expired(now) })
}

// filter returns matching requests, oldest first.
func (p *PendingRequests) filter(keep func(*domain.JoinRequest) bool) []*domain.JoinRequest {
	var out []*domain.JoinRequest
	for _, r := range p.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
