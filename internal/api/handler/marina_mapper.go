package handler

import (
	"github.com/marina/marina-system/internal/core/domain"
	"github.com/marina/marina-system/internal/core/ports"
)

// --- Request → Service input ---

func toOwnerInput(req ownerRequest) ports.OwnerInput {
	return ports.OwnerInput{Name: req.Name, Address: req.Address, Phone: req.Phone}
}

func toBoatInput(req boatRequest) ports.BoatInput {
	return ports.BoatInput{Name: req.Name, Type: req.Type, Captain: req.Captain, ImageURL: req.ImageURL}
}

func toHarbourInput(req harbourRequest) ports.HarbourInput {
	return ports.HarbourInput{Name: req.Name, Address: req.Address, Capacity: req.Capacity}
}

// --- Domain → Response ---

// ids never returns nil so empty collections encode as [].
func ids(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{Username: u.Username, Roles: ids(u.Roles), CreatedAt: u.CreatedAt}
}

func toOwnerResponse(o *domain.Owner) ownerResponse {
	return ownerResponse{ID: o.ID, Name: o.Name, Address: o.Address, Phone: o.Phone, BoatIDs: ids(o.BoatIDs)}
}

func toOwnerResponses(owners []*domain.Owner) []ownerResponse {
	out := make([]ownerResponse, 0, len(owners))
	for _, o := range owners {
		out = append(out, toOwnerResponse(o))
	}
	return out
}

func toBoatResponse(b *domain.Boat) boatResponse {
	resp := boatResponse{
		ID:       b.ID,
		Name:     b.Name,
		Type:     b.Type,
		Captain:  b.Captain,
		ImageURL: b.ImageURL,
		OwnerIDs: ids(b.OwnerIDs),
	}
	if b.HarbourID != "" {
		harbourID := b.HarbourID
		resp.HarbourID = &harbourID
	}
	return resp
}

func toBoatResponses(boats []*domain.Boat) []boatResponse {
	out := make([]boatResponse, 0, len(boats))
	for _, b := range boats {
		out = append(out, toBoatResponse(b))
	}
	return out
}

func toHarbourResponse(h *domain.Harbour) harbourResponse {
	return harbourResponse{
		ID:       h.ID,
		Name:     h.Name,
		Address:  h.Address,
		Capacity: h.Capacity,
		Free:     h.Free(),
		BoatIDs:  ids(h.BoatIDs),
	}
}

func toHarbourResponses(harbours []*domain.Harbour) []harbourResponse {
	out := make([]harbourResponse, 0, len(harbours))
	for _, h := range harbours {
		out = append(out, toHarbourResponse(h))
	}
	return out
}
