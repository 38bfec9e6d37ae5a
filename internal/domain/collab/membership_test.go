package collab

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRoleOf(t *testing.T) {
	owner := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	if err := AddCollaborator(c, editor, models.RoleEditor, t0); err != nil {
		t.Fatal(err)
	}

	if r, ok := RoleOf(c, owner); !ok || r != models.RoleOwner {
		t.Errorf("owner resolved to %q, %v", r, ok)
	}
	if r, ok := RoleOf(c, editor); !ok || r != models.RoleEditor {
		t.Errorf("editor resolved to %q, %v", r, ok)
	}
	if _, ok := RoleOf(c, primitive.NewObjectID()); ok {
		t.Error("stranger should not resolve to a role")
	}
	if _, ok := RoleOf(c, primitive.NilObjectID); ok {
		t.Error("anonymous should not resolve to a role")
	}
}

func TestPermissionMatrix(t *testing.T) {
	owner := primitive.NewObjectID()
	c := newActive(t, owner, 10)
	users := map[models.CollaboratorRole]primitive.ObjectID{models.RoleOwner: owner}
	for _, r := range models.AssignableRoles {
		id := primitive.NewObjectID()
		users[r] = id
		if err := AddCollaborator(c, id, r, t0); err != nil {
			t.Fatal(err)
		}
	}
	stranger := primitive.NewObjectID()

	tests := []struct {
		role                                         models.CollaboratorRole
		edit, createVersion, invite, manage, approve bool
	}{
		{models.RoleOwner, true, true, true, true, true},
		{models.RoleAdmin, true, true, true, true, true},
		{models.RoleEditor, true, true, true, false, false},
		{models.RoleReviewer, false, false, false, false, true},
		{models.RoleContributor, false, true, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			u := users[tt.role]
			if got := CanEdit(c, u); got != tt.edit {
				t.Errorf("CanEdit = %v, want %v", got, tt.edit)
			}
			if got := CanCreateVersion(c, u); got != tt.createVersion {
				t.Errorf("CanCreateVersion = %v, want %v", got, tt.createVersion)
			}
			if got := CanInvite(c, u); got != tt.invite {
				t.Errorf("CanInvite = %v, want %v", got, tt.invite)
			}
			if got := CanManage(c, u); got != tt.manage {
				t.Errorf("CanManage = %v, want %v", got, tt.manage)
			}
			if got := CanApprove(c, u); got != tt.approve {
				t.Errorf("CanApprove = %v, want %v", got, tt.approve)
			}
			if !IsCollaborator(c, u) {
				t.Error("expected IsCollaborator")
			}
		})
	}

	for _, a := range []Action{ActionEdit, ActionCreateVersion, ActionInvite, ActionManage, ActionApprove} {
		if Can(c, stranger, a) {
			t.Errorf("stranger allowed to %s", a)
		}
	}
	mustKind(t, Authorize(c, stranger, ActionManage), ErrForbidden)
}

func TestCanView(t *testing.T) {
	owner := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	c.Settings.IsPublic = false

	if CanView(c, Viewer{}) {
		t.Error("anonymous should not see a private collaboration")
	}
	if CanView(c, Viewer{ID: primitive.NewObjectID()}) {
		t.Error("stranger should not see a private collaboration")
	}
	if !CanView(c, Viewer{ID: owner}) {
		t.Error("owner should see it")
	}
	if !CanView(c, Viewer{ID: primitive.NewObjectID(), SiteAdmin: true}) {
		t.Error("site admin should see it")
	}
	c.Settings.IsPublic = true
	if !CanView(c, Viewer{}) {
		t.Error("anyone should see a public collaboration")
	}
}

func TestAddCollaborator_DuplicateAndCap(t *testing.T) {
	owner := primitive.NewObjectID()
	c := newActive(t, owner, 2)
	a, b, x := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	if err := AddCollaborator(c, a, models.RoleContributor, t0); err != nil {
		t.Fatal(err)
	}
	mustKind(t, AddCollaborator(c, a, models.RoleEditor, t0), ErrConflict)
	mustKind(t, AddCollaborator(c, owner, models.RoleEditor, t0), ErrConflict)
	mustKind(t, AddCollaborator(c, x, models.RoleOwner, t0), ErrValidation)

	if err := AddCollaborator(c, b, models.RoleContributor, t0); err != nil {
		t.Fatal(err)
	}
	mustKind(t, AddCollaborator(c, x, models.RoleContributor, t0), ErrConflict)
	if len(c.Collaborators) != 2 || c.Stats.TotalContributors != 3 {
		t.Errorf("unexpected membership: %d collaborators, %d contributors", len(c.Collaborators), c.Stats.TotalContributors)
	}
}

func TestRemoveAndUpdateRole(t *testing.T) {
	owner := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	_ = AddCollaborator(c, admin, models.RoleAdmin, t0)
	_ = AddCollaborator(c, member, models.RoleContributor, t0)

	mustKind(t, RemoveCollaborator(c, member, admin, t0), ErrForbidden)
	mustKind(t, RemoveCollaborator(c, admin, owner, t0), ErrNotFound)
	mustKind(t, RemoveCollaborator(c, admin, primitive.NewObjectID(), t0), ErrNotFound)

	if err := UpdateCollaboratorRole(c, admin, member, models.RoleEditor, t0); err != nil {
		t.Fatalf("role update failed: %v", err)
	}
	if r, _ := RoleOf(c, member); r != models.RoleEditor {
		t.Errorf("expected editor, got %q", r)
	}
	mustKind(t, UpdateCollaboratorRole(c, admin, member, models.RoleOwner, t0), ErrValidation)
	mustKind(t, UpdateCollaboratorRole(c, member, admin, models.RoleContributor, t0), ErrForbidden)

	if err := RemoveCollaborator(c, admin, member, t0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if IsCollaborator(c, member) {
		t.Error("member still listed after removal")
	}
	if c.Stats.TotalContributors != 2 {
		t.Errorf("expected 2 contributors, got %d", c.Stats.TotalContributors)
	}
}

func TestInviteAcceptRoundTrip(t *testing.T) {
	owner := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := newActive(t, owner, 5)

	inv, err := Invite(c, owner, b, models.RoleEditor, "join us", t0)
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if !inv.ExpiresAt.Equal(t0.Add(7 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry %v", inv.ExpiresAt)
	}

	role, err := AcceptInvite(c, b, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if role != models.RoleEditor {
		t.Errorf("expected editor, got %q", role)
	}
	if r, ok := RoleOf(c, b); !ok || r != models.RoleEditor {
		t.Errorf("B not listed as editor: %q %v", r, ok)
	}
	if PendingInvite(c, b) != nil {
		t.Error("invite not consumed")
	}
}

func TestInvite_Rules(t *testing.T) {
	owner := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	contributor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	_ = AddCollaborator(c, editor, models.RoleEditor, t0)
	_ = AddCollaborator(c, contributor, models.RoleContributor, t0)

	_, err := Invite(c, contributor, target, models.RoleContributor, "", t0)
	mustKind(t, err, ErrForbidden)

	_, err = Invite(c, editor, target, models.RoleAdmin, "", t0)
	mustKind(t, err, ErrForbidden)

	_, err = Invite(c, editor, contributor, models.RoleContributor, "", t0)
	mustKind(t, err, ErrConflict)

	_, err = Invite(c, editor, owner, models.RoleContributor, "", t0)
	mustKind(t, err, ErrConflict)

	if _, err := Invite(c, editor, target, models.RoleReviewer, "", t0); err != nil {
		t.Fatalf("editor invite failed: %v", err)
	}
	if got := c.Collaborators[0].ContributionScore; got != 10 {
		t.Errorf("expected inviter credited 10, got %d", got)
	}

	_, err = Invite(c, owner, target, models.RoleEditor, "", t0)
	mustKind(t, err, ErrConflict)
}

func TestInvite_ExpiredIsReplacedAndCannotBeAccepted(t *testing.T) {
	owner := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := newActive(t, owner, 5)

	if _, err := Invite(c, owner, b, models.RoleContributor, "", t0); err != nil {
		t.Fatal(err)
	}
	later := t0.Add(InviteTTL + time.Minute)

	_, err := AcceptInvite(c, b, later)
	mustKind(t, err, ErrConflict)
	if IsCollaborator(c, b) {
		t.Error("expired invite should not add collaborator")
	}

	if _, err := Invite(c, owner, b, models.RoleEditor, "again", later); err != nil {
		t.Fatalf("re-invite after expiry failed: %v", err)
	}
	if len(c.PendingInvites) != 1 || c.PendingInvites[0].Role != models.RoleEditor {
		t.Errorf("expected the expired invite to be replaced, got %+v", c.PendingInvites)
	}
}

func TestDeclineThenReinvite(t *testing.T) {
	owner := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := newActive(t, owner, 5)

	mustKind(t, DeclineInvite(c, b, t0), ErrNotFound)
	if _, err := Invite(c, owner, b, models.RoleContributor, "", t0); err != nil {
		t.Fatal(err)
	}
	if err := DeclineInvite(c, b, t0); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if len(c.PendingInvites) != 0 {
		t.Error("invite not removed on decline")
	}
	if _, err := Invite(c, owner, b, models.RoleContributor, "", t0); err != nil {
		t.Errorf("re-invite after decline should be allowed: %v", err)
	}
}

func TestAcceptInvite_CapReachedIsSurfaced(t *testing.T) {
	owner := primitive.NewObjectID()
	c := newActive(t, owner, 2)
	invited := primitive.NewObjectID()
	if _, err := Invite(c, owner, invited, models.RoleEditor, "", t0); err != nil {
		t.Fatal(err)
	}
	_ = AddCollaborator(c, primitive.NewObjectID(), models.RoleContributor, t0)
	_ = AddCollaborator(c, primitive.NewObjectID(), models.RoleContributor, t0)

	_, err := AcceptInvite(c, invited, t0)
	mustKind(t, err, ErrConflict)
	if PendingInvite(c, invited) == nil {
		t.Error("invite should survive a failed accept")
	}
}

func TestJoin(t *testing.T) {
	owner := primitive.NewObjectID()

	t.Run("not active", func(t *testing.T) {
		c := newActive(t, owner, 5)
		c.Status = models.StatusDraft
		_, err := Join(c, primitive.NewObjectID(), t0)
		mustKind(t, err, ErrConflict)
	})

	t.Run("already member", func(t *testing.T) {
		c := newActive(t, owner, 5)
		_, err := Join(c, owner, t0)
		mustKind(t, err, ErrConflict)
	})

	t.Run("requires approval without invite", func(t *testing.T) {
		c := newActive(t, owner, 5)
		c.Settings.RequireApproval = true
		_, err := Join(c, primitive.NewObjectID(), t0)
		mustKind(t, err, ErrForbidden)
	})

	t.Run("requires approval with invite", func(t *testing.T) {
		c := newActive(t, owner, 5)
		c.Settings.RequireApproval = true
		u := primitive.NewObjectID()
		if _, err := Invite(c, owner, u, models.RoleReviewer, "", t0); err != nil {
			t.Fatal(err)
		}
		role, err := Join(c, u, t0)
		if err != nil {
			t.Fatalf("join with invite failed: %v", err)
		}
		if role != models.RoleReviewer {
			t.Errorf("expected invited role reviewer, got %q", role)
		}
		if PendingInvite(c, u) != nil {
			t.Error("invite not consumed by join")
		}
	})

	t.Run("cap reached", func(t *testing.T) {
		c := newActive(t, owner, 2)
		_, _ = Join(c, primitive.NewObjectID(), t0)
		_, _ = Join(c, primitive.NewObjectID(), t0)
		_, err := Join(c, primitive.NewObjectID(), t0)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("expected conflict at cap, got %v", err)
		}
	})
}

func TestPruneExpiredInvites(t *testing.T) {
	owner := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	_, _ = Invite(c, owner, primitive.NewObjectID(), models.RoleContributor, "", t0)
	_, _ = Invite(c, owner, primitive.NewObjectID(), models.RoleContributor, "", t0.Add(3*24*time.Hour))

	n := PruneExpiredInvites(c, t0.Add(InviteTTL))
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if len(c.PendingInvites) != 1 {
		t.Errorf("expected 1 remaining, got %d", len(c.PendingInvites))
	}
}
