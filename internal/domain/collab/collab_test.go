package collab

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func boolp(b bool) *bool { return &b }
func intp(n int) *int    { return &n }

// newActive builds an active collaboration owned by owner with the given cap.
func newActive(t *testing.T, owner primitive.ObjectID, max int) *models.Collaboration {
	t.Helper()
	c, err := New(owner, CreateInput{
		Title:  "Distracted Boyfriend remix",
		Type:   models.CollabTypeRemix,
		Status: models.StatusActive,
		Settings: &SettingsInput{
			AllowForks:       boolp(true),
			RequireApproval:  boolp(false),
			MaxCollaborators: intp(max),
		},
	}, t0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func mustKind(t *testing.T, err, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v error, got %v", kind, err)
	}
	if Reason(err) == "" {
		t.Errorf("expected a reason on %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	owner := primitive.NewObjectID()
	c, err := New(owner, CreateInput{Title: "  Cat memes  "}, t0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Title != "Cat memes" {
		t.Errorf("expected trimmed title, got %q", c.Title)
	}
	if c.TitleCI != "cat memes" {
		t.Errorf("expected folded title, got %q", c.TitleCI)
	}
	if c.Status != models.StatusDraft {
		t.Errorf("expected draft status, got %q", c.Status)
	}
	if c.Type != models.CollabTypeCollaboration {
		t.Errorf("expected default type collaboration, got %q", c.Type)
	}
	if !c.Settings.IsPublic || !c.Settings.AllowForks || c.Settings.RequireApproval {
		t.Errorf("unexpected default settings: %+v", c.Settings)
	}
	if c.Settings.MaxCollaborators != DefaultMaxCollabs {
		t.Errorf("expected max %d, got %d", DefaultMaxCollabs, c.Settings.MaxCollaborators)
	}
	if c.Stats.TotalContributors != 1 {
		t.Errorf("expected 1 contributor (owner), got %d", c.Stats.TotalContributors)
	}
	if c.Collaborators == nil || c.Versions == nil || c.Comments == nil || c.PendingInvites == nil {
		t.Error("expected empty, non-nil lists")
	}
}

func TestNew_Validation(t *testing.T) {
	owner := primitive.NewObjectID()
	future := t0.Add(time.Hour)
	past := t0.Add(-time.Hour)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty title", CreateInput{Title: "   "}},
		{"long title", CreateInput{Title: strings.Repeat("a", MaxTitleLen+1)}},
		{"long description", CreateInput{Title: "ok", Description: strings.Repeat("d", MaxDescriptionLen+1)}},
		{"bad type", CreateInput{Title: "ok", Type: "sketch"}},
		{"challenge response without challenge", CreateInput{Title: "ok", Type: models.CollabTypeChallengeResponse}},
		{"start completed", CreateInput{Title: "ok", Status: models.StatusCompleted}},
		{"max too low", CreateInput{Title: "ok", Settings: &SettingsInput{MaxCollaborators: intp(1)}}},
		{"max too high", CreateInput{Title: "ok", Settings: &SettingsInput{MaxCollaborators: intp(51)}}},
		{"deadline in past", CreateInput{Title: "ok", Settings: &SettingsInput{Deadline: &past}}},
		{"too many tags", CreateInput{Title: "ok", Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(owner, tt.in, t0)
			mustKind(t, err, ErrValidation)
		})
	}

	c, err := New(owner, CreateInput{Title: "ok", Settings: &SettingsInput{Deadline: &future, MaxCollaborators: intp(50)}}, t0)
	if err != nil {
		t.Fatalf("expected valid settings to pass, got %v", err)
	}
	if c.Settings.Deadline == nil || !c.Settings.Deadline.Equal(future) {
		t.Errorf("deadline not applied: %v", c.Settings.Deadline)
	}
}

func TestNew_TagsNormalized(t *testing.T) {
	c, err := New(primitive.NewObjectID(), CreateInput{Title: "ok", Tags: []string{" Funny ", "funny", "", "CATS"}}, t0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(c.Tags) != 2 || c.Tags[0] != "funny" || c.Tags[1] != "cats" {
		t.Errorf("unexpected tags: %v", c.Tags)
	}
}

func TestUpdate(t *testing.T) {
	owner := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	c := newActive(t, owner, 5)
	if err := AddCollaborator(c, admin, models.RoleAdmin, t0); err != nil {
		t.Fatal(err)
	}
	if err := AddCollaborator(c, editor, models.RoleEditor, t0); err != nil {
		t.Fatal(err)
	}

	title := "New title"
	if err := Update(c, editor, Patch{Title: &title}, t0); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected editor update to be forbidden, got %v", err)
	}
	if err := Update(c, admin, Patch{Title: &title, Settings: &SettingsInput{IsPublic: boolp(false)}}, t0); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if c.Title != title || c.TitleCI != "new title" || c.Settings.IsPublic {
		t.Errorf("update not applied: %q %q public=%v", c.Title, c.TitleCI, c.Settings.IsPublic)
	}

	// A failing field leaves every other field untouched.
	bad := strings.Repeat("x", MaxTitleLen+1)
	desc := "should not stick"
	err := Update(c, owner, Patch{Description: &desc, Title: &bad}, t0)
	mustKind(t, err, ErrValidation)
	if c.Description == desc {
		t.Error("description changed despite validation failure")
	}

	// The cap cannot drop below the current member count.
	err = Update(c, owner, Patch{Settings: &SettingsInput{MaxCollaborators: intp(2)}}, t0)
	if err != nil {
		t.Fatalf("cap equal to member count should be accepted: %v", err)
	}
	c.Settings.MaxCollaborators = 5
	if err := AddCollaborator(c, primitive.NewObjectID(), models.RoleContributor, t0); err != nil {
		t.Fatal(err)
	}
	err = Update(c, owner, Patch{Settings: &SettingsInput{MaxCollaborators: intp(2)}}, t0)
	mustKind(t, err, ErrValidation)
}

func TestTransition(t *testing.T) {
	owner := primitive.NewObjectID()
	tests := []struct {
		from, to models.CollaborationStatus
		ok       bool
	}{
		{models.StatusDraft, models.StatusActive, true},
		{models.StatusDraft, models.StatusReviewing, false},
		{models.StatusDraft, models.StatusCancelled, true},
		{models.StatusActive, models.StatusReviewing, true},
		{models.StatusActive, models.StatusCompleted, true},
		{models.StatusActive, models.StatusDraft, false},
		{models.StatusReviewing, models.StatusActive, true},
		{models.StatusReviewing, models.StatusCompleted, true},
		{models.StatusCompleted, models.StatusActive, false},
		{models.StatusCancelled, models.StatusActive, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusActive, models.StatusActive, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			c := newActive(t, owner, 5)
			c.Status = tt.from
			err := Transition(c, owner, tt.to, t0)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected transition to succeed, got %v", err)
				}
				if c.Status != tt.to {
					t.Errorf("expected status %q, got %q", tt.to, c.Status)
				}
				return
			}
			mustKind(t, err, ErrConflict)
			if c.Status != tt.from {
				t.Errorf("status changed on failed transition")
			}
		})
	}

	c := newActive(t, owner, 5)
	err := Transition(c, primitive.NewObjectID(), models.StatusReviewing, t0)
	mustKind(t, err, ErrForbidden)
	err = Transition(c, owner, "archived", t0)
	mustKind(t, err, ErrValidation)
}

func TestCanDelete(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	c := newActive(t, owner, 5)

	mustKind(t, CanDelete(c, other), ErrForbidden)
	if err := CanDelete(c, owner); err != nil {
		t.Errorf("owner should be able to delete empty collaboration: %v", err)
	}
	if err := AddCollaborator(c, other, models.RoleContributor, t0); err != nil {
		t.Fatal(err)
	}
	mustKind(t, CanDelete(c, owner), ErrConflict)
}

// The end-to-end walkthrough from the collaboration design notes: join,
// version, fork, merge, forbidden version and guarded delete.
func TestScenario_JoinVersionForkMergeDelete(t *testing.T) {
	u1, u2, u3, u4 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	m1, m2 := primitive.NewObjectID(), primitive.NewObjectID()

	// 1. U2 joins an open collaboration.
	c := newActive(t, u1, 3)
	role, err := Join(c, u2, t0)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if role != models.RoleContributor {
		t.Errorf("expected contributor, got %q", role)
	}
	if len(c.Collaborators) != 1 || c.Stats.TotalContributors != 2 {
		t.Fatalf("expected 1 collaborator and 2 contributors, got %d and %d", len(c.Collaborators), c.Stats.TotalContributors)
	}

	// 2. U2 creates version 1.
	v, err := CreateVersion(c, u2, VersionInput{Title: "first cut", MemeID: m1}, t0)
	if err != nil {
		t.Fatalf("create version failed: %v", err)
	}
	if v.Version != 1 || !v.IsCurrent || !v.Approved {
		t.Errorf("unexpected version: %+v", v)
	}
	if c.Stats.TotalVersions != 1 {
		t.Errorf("expected totalVersions 1, got %d", c.Stats.TotalVersions)
	}
	if got := c.Collaborators[0].ContributionScore; got != 10 {
		t.Errorf("expected score 10, got %d", got)
	}

	// 3. U3 forks.
	f, err := Fork(c, u3, "My Fork", t0)
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}
	if f.OwnerID != u3 || f.ParentCollaborationID == nil || *f.ParentCollaborationID != c.ID {
		t.Errorf("fork not linked to parent: %+v", f)
	}
	if len(f.Collaborators) != 0 || len(f.Versions) != 0 {
		t.Error("expected empty fork")
	}

	// 4. U3 versions the fork, U1 merges it back.
	if _, err := CreateVersion(f, u3, VersionInput{Title: "fork cut", MemeID: m2}, t0); err != nil {
		t.Fatalf("fork version failed: %v", err)
	}
	sum, err := MergeFromFork(c, f, u1, models.MergeOptions{MergeVersions: true}, t0)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if sum.VersionsMerged != 1 || len(c.Versions) != 2 {
		t.Fatalf("expected one merged version, got summary %+v and %d versions", sum, len(c.Versions))
	}
	mv := c.Versions[1]
	if mv.Version != 2 || mv.MergedFrom == nil || *mv.MergedFrom != f.ID {
		t.Errorf("unexpected merged version: %+v", mv)
	}
	if c.Stats.TotalVersions != 2 {
		t.Errorf("expected totalVersions 2, got %d", c.Stats.TotalVersions)
	}

	// 5. An outsider cannot create versions.
	_, err = CreateVersion(c, u4, VersionInput{Title: "nope", MemeID: m1}, t0)
	mustKind(t, err, ErrForbidden)

	// 6. Delete is blocked until the last collaborator is removed.
	mustKind(t, CanDelete(c, u1), ErrConflict)
	if err := RemoveCollaborator(c, u1, u2, t0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := CanDelete(c, u1); err != nil {
		t.Errorf("expected delete to be allowed, got %v", err)
	}
}
