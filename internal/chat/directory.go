// Package chat implements the channel directory, the message store and
// the live channel feed.
package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

// Directory resolves channel membership and creates channels.
type Directory struct {
	store store.Store
}

func NewDirectory(st store.Store) *Directory {
	return &Directory{store: st}
}

// ListChannels returns every channel the user is a member of, members
// included, in creation order.
func (d *Directory) ListChannels(userID string) ([]models.Channel, error) {
	if userID == "" {
		return nil, store.ErrNotAuthenticated
	}
	return d.store.ListUserChannels(userID)
}

// CreateChannel creates a group channel. With no explicit member list a
// new group is org-wide: every member of the creator's organization is
// added alongside the creator.
func (d *Directory) CreateChannel(creatorID, name string, kind models.ChannelKind, color string, memberIDs []string) (*models.Channel, error) {
	if creatorID == "" {
		return nil, store.ErrNotAuthenticated
	}
	creator, err := d.store.GetUserByID(creatorID)
	if err != nil {
		return nil, err
	}
	if creator.OrganizationID == "" {
		return nil, store.ErrNoOrganization
	}

	ch := &models.Channel{
		Name:           name,
		Kind:           kind,
		Color:          color,
		OrganizationID: creator.OrganizationID,
		CreatedBy:      creatorID,
	}
	if err := d.store.CreateChannel(ch); err != nil {
		return nil, err
	}

	if kind == models.ChannelGroup && len(memberIDs) == 0 {
		members, err := d.store.ListOrgMembers(creator.OrganizationID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			memberIDs = append(memberIDs, m.ID)
		}
	}

	added := map[string]bool{}
	for _, id := range append([]string{creatorID}, memberIDs...) {
		if added[id] {
			continue
		}
		if err := d.store.AddMember(ch.ID, id); err != nil {
			return nil, err
		}
		added[id] = true
	}

	return d.store.GetChannel(ch.ID)
}

// DirectKey is the canonical identity of a direct channel: the two
// member ids sorted and joined, so {A,B} and {B,A} collide on the same
// unique index entry.
func DirectKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// GetOrCreateDirect returns the direct channel between the caller and
// otherID, creating it on first use. The store's unique index on the
// sorted pair key makes concurrent first sends converge on one channel.
func (d *Directory) GetOrCreateDirect(userID, otherID string) (*models.Channel, error) {
	if userID == "" {
		return nil, store.ErrNotAuthenticated
	}
	if userID == otherID {
		return nil, fmt.Errorf("cannot open a direct channel with yourself")
	}

	key := DirectKey(userID, otherID)
	if ch, err := d.store.GetDirectChannel(key); err == nil {
		return ch, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	other, err := d.store.GetUserByID(otherID)
	if err != nil {
		return nil, err
	}

	ch := &models.Channel{
		Name:           strings.TrimSpace(other.Name),
		Kind:           models.ChannelDirect,
		DirectKey:      key,
		OrganizationID: other.OrganizationID,
		CreatedBy:      userID,
	}
	err = d.store.CreateChannel(ch)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost the creation race to another client, use theirs.
		return d.store.GetDirectChannel(key)
	}
	if err != nil {
		return nil, err
	}

	for _, id := range []string{userID, otherID} {
		if err := d.store.AddMember(ch.ID, id); err != nil {
			return nil, err
		}
	}
	return d.store.GetChannel(ch.ID)
}
