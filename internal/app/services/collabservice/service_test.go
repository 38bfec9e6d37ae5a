package collabservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/remixhub/internal/app/services/collabservice"
	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/remixhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	svc    *collabservice.Service
	repo   *testutil.MemRepo
	users  *testutil.MemUsers
	memes  *testutil.MemContent
	groups *testutil.MemGroups
	events *events.Recorder
	audit  *observer.ObservedLogs
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	e := &env{
		repo:   testutil.NewMemRepo(),
		users:  testutil.NewMemUsers(),
		memes:  testutil.NewMemContent(),
		groups: testutil.NewMemGroups(),
		events: &events.Recorder{},
		audit:  logs,
		now:    t0,
	}
	e.svc = collabservice.New(collabservice.Deps{
		Repo:       e.repo,
		Users:      e.users,
		Memes:      e.memes,
		Challenges: testutil.NewMemContent(),
		Groups:     e.groups,
		Events:     e.events,
		Audit:      auditlog.New(nil, zap.New(core), auditlog.Config{Collab: "log", Security: "log"}),
		Log:        zap.NewNop(),
		Now:        func() time.Time { return e.now },
	})
	return e
}

func (e *env) user(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	return e.users.Add(models.User{Username: name}).ID
}

func (e *env) create(t *testing.T, owner primitive.ObjectID, maxCollabs int, requireApproval bool) *models.Collaboration {
	t.Helper()
	c, err := e.svc.Create(context.Background(), owner, collab.CreateInput{
		Title:  "Distracted boyfriend",
		Status: models.StatusActive,
		Settings: &collab.SettingsInput{
			AllowForks:       boolPtr(true),
			RequireApproval:  boolPtr(requireApproval),
			MaxCollaborators: &maxCollabs,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func boolPtr(b bool) *bool { return &b }

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func (e *env) auditTypes() []string {
	var out []string
	for _, entry := range e.audit.All() {
		if v, ok := entry.ContextMap()["event_type"].(string); ok {
			out = append(out, v)
		}
	}
	return out
}

// Walks the end-to-end flow: join, version, fork, merge, forbidden version,
// delete blocked then allowed.
func TestScenario_FullFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u1, u2, u3, u4 := e.user(t, "u1"), e.user(t, "u2"), e.user(t, "u3"), e.user(t, "u4")

	// 1. open membership join.
	c := e.create(t, u1, 3, false)
	role, err := e.svc.Join(ctx, c.ID, u2, "hi")
	if err != nil || role != models.RoleContributor {
		t.Fatalf("Join = %q, %v", role, err)
	}
	stored := e.repo.Stored(c.ID)
	if len(stored.Collaborators) != 1 || stored.Stats.TotalContributors != 2 {
		t.Fatalf("after join: collaborators=%d contributors=%d", len(stored.Collaborators), stored.Stats.TotalContributors)
	}

	// 2. first version.
	m1 := e.memes.Add()
	v, err := e.svc.CreateVersion(ctx, c.ID, u2, collab.VersionInput{Title: "v1", MemeID: m1})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v.Version != 1 || !v.IsCurrent || !v.Approved {
		t.Errorf("version = %+v", v)
	}
	stored = e.repo.Stored(c.ID)
	if stored.Stats.TotalVersions != 1 || stored.Collaborators[0].ContributionScore != 10 {
		t.Errorf("stats=%+v score=%d", stored.Stats, stored.Collaborators[0].ContributionScore)
	}

	// 3. fork.
	fork, err := e.svc.Fork(ctx, c.ID, collab.Viewer{ID: u3}, "My Fork")
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if fork.OwnerID != u3 || fork.ParentCollaborationID == nil || *fork.ParentCollaborationID != c.ID {
		t.Errorf("fork = %+v", fork)
	}
	if len(fork.Collaborators) != 0 || len(fork.Versions) != 0 {
		t.Error("fork must start empty")
	}
	if got := e.repo.Stored(c.ID).Stats.TotalForks; got != 1 {
		t.Errorf("source total_forks = %d, want 1", got)
	}

	// 4. merge fork versions back.
	if _, err := e.svc.CreateVersion(ctx, fork.ID, u3, collab.VersionInput{Title: "fork v1", MemeID: m1}); err != nil {
		t.Fatalf("fork CreateVersion: %v", err)
	}
	sum, err := e.svc.Merge(ctx, c.ID, u1, fork.ID, models.MergeOptions{MergeVersions: true})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if sum.VersionsMerged != 1 || sum.FirstVersion != 2 {
		t.Errorf("summary = %+v", sum)
	}
	stored = e.repo.Stored(c.ID)
	last := stored.Versions[len(stored.Versions)-1]
	if last.Version != 2 || last.MergedFrom == nil || *last.MergedFrom != fork.ID || stored.Stats.TotalVersions != 2 {
		t.Errorf("merged version = %+v, total = %d", last, stored.Stats.TotalVersions)
	}
	if len(e.repo.Stored(fork.ID).Versions) != 1 {
		t.Error("merge must not modify the fork")
	}

	// 5. non-collaborator cannot create a version.
	_, err = e.svc.CreateVersion(ctx, c.ID, u4, collab.VersionInput{Title: "nope", MemeID: m1})
	wantKind(t, err, collab.ErrForbidden)

	// 6. delete blocked while a collaborator remains.
	wantKind(t, e.svc.Delete(ctx, c.ID, u1), collab.ErrConflict)
	if err := e.svc.RemoveCollaborator(ctx, c.ID, u1, u2); err != nil {
		t.Fatalf("RemoveCollaborator: %v", err)
	}
	if err := e.svc.Delete(ctx, c.ID, u1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e.repo.Stored(c.ID) != nil {
		t.Error("collaboration still stored after delete")
	}

	wantEvents := []string{events.CollaboratorJoin, events.VersionCreated, events.ForkCreated, events.VersionCreated, events.MergeCompleted}
	if got := e.events.Types(); len(got) != len(wantEvents) {
		t.Errorf("events = %v, want %v", got, wantEvents)
	}
	audits := e.auditTypes()
	for _, want := range []string{"collab_created", "collab_forked", "collab_merged", "collaborator_removed", "collab_deleted"} {
		found := false
		for _, a := range audits {
			if a == want {
				found = true
			}
		}
		if !found {
			t.Errorf("audit %q missing from %v", want, audits)
		}
	}
}

func TestInviteAcceptRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, bob := e.user(t, "owner"), e.user(t, "Bob")
	c := e.create(t, owner, 5, true)

	inv, err := e.svc.Invite(ctx, c.ID, owner, "@bob", models.RoleEditor, "<b>join</b> us")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if inv.UserID != bob || inv.Message != "join us" {
		t.Errorf("invite = %+v", inv)
	}

	mine, err := e.svc.MyInvites(ctx, bob)
	if err != nil || len(mine) != 1 || mine[0].CollaborationID != c.ID {
		t.Fatalf("MyInvites = %+v, %v", mine, err)
	}

	role, err := e.svc.AcceptInvite(ctx, c.ID, bob)
	if err != nil || role != models.RoleEditor {
		t.Fatalf("AcceptInvite = %q, %v", role, err)
	}
	stored := e.repo.Stored(c.ID)
	if len(stored.PendingInvites) != 0 {
		t.Error("invite not consumed")
	}
	if r, ok := collab.RoleOf(stored, bob); !ok || r != models.RoleEditor {
		t.Errorf("role = %q, %v", r, ok)
	}
	if got := e.events.Types(); len(got) != 2 || got[0] != events.InviteSent || got[1] != events.InviteAccepted {
		t.Errorf("events = %v", got)
	}
}

func TestInvite_Failures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	banned := e.users.Add(models.User{Username: "troll", Status: models.UserStatusBanned})
	c := e.create(t, owner, 5, false)

	_, err := e.svc.Invite(ctx, c.ID, owner, "nobody", models.RoleEditor, "")
	wantKind(t, err, collab.ErrNotFound)

	_, err = e.svc.Invite(ctx, c.ID, owner, banned.Username, models.RoleEditor, "")
	wantKind(t, err, collab.ErrConflict)

	stranger := e.user(t, "stranger")
	_, err = e.svc.Invite(ctx, c.ID, stranger, "owner", models.RoleEditor, "")
	wantKind(t, err, collab.ErrForbidden)
}

func TestJoin_RequiresInviteWhenApprovalRequired(t *testing.T) {
	e := newEnv(t)
	owner, u := e.user(t, "owner"), e.user(t, "u")
	c := e.create(t, owner, 5, true)

	_, err := e.svc.Join(context.Background(), c.ID, u, "")
	wantKind(t, err, collab.ErrForbidden)
	if e.repo.Saves != 0 {
		t.Errorf("rejected join wrote %d times", e.repo.Saves)
	}
}

func TestDeclineInvite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, u := e.user(t, "owner"), e.user(t, "u")
	c := e.create(t, owner, 5, false)
	if _, err := e.svc.Invite(ctx, c.ID, owner, "u", models.RoleContributor, ""); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if err := e.svc.DeclineInvite(ctx, c.ID, u); err != nil {
		t.Fatalf("DeclineInvite: %v", err)
	}
	if n := len(e.repo.Stored(c.ID).PendingInvites); n != 0 {
		t.Errorf("pending invites = %d", n)
	}
	wantKind(t, e.svc.DeclineInvite(ctx, c.ID, u), collab.ErrNotFound)
}

func TestGet_VisibilityAndViews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, other := e.user(t, "owner"), e.user(t, "other")
	c := e.create(t, owner, 5, false)

	v, err := e.svc.Get(ctx, c.ID, collab.Viewer{ID: owner})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.UserRole != models.RoleOwner || !v.IsCollaborator || v.Stats.TotalViews != 1 {
		t.Errorf("view = role %q member %v views %d", v.UserRole, v.IsCollaborator, v.Stats.TotalViews)
	}

	private := false
	if _, err := e.svc.Update(ctx, c.ID, owner, collab.Patch{Settings: &collab.SettingsInput{IsPublic: &private}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err = e.svc.Get(ctx, c.ID, collab.Viewer{ID: other})
	wantKind(t, err, collab.ErrForbidden)
	if _, err := e.svc.Get(ctx, c.ID, collab.Viewer{ID: other, SiteAdmin: true}); err != nil {
		t.Errorf("site admin Get: %v", err)
	}

	_, err = e.svc.Get(ctx, primitive.NewObjectID(), collab.Viewer{})
	wantKind(t, err, collab.ErrNotFound)

	if got := e.repo.Stored(c.ID).Stats.TotalViews; got != 2 {
		t.Errorf("views = %d, want 2", got)
	}
}

func TestUpdate_SanitizesAndAuditsStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")
	c := e.create(t, owner, 5, false)

	title := "<i>Fresh</i> title"
	status := models.StatusReviewing
	got, err := e.svc.Update(ctx, c.ID, owner, collab.Patch{Title: &title, Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "Fresh title" || got.Status != models.StatusReviewing {
		t.Errorf("updated = %q %q", got.Title, got.Status)
	}
	if types := e.auditTypes(); types[len(types)-1] != "collab_status_changed" {
		t.Errorf("audit = %v", types)
	}

	if _, err := e.svc.Transition(ctx, c.ID, owner, models.StatusCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	_, err = e.svc.Transition(ctx, c.ID, owner, models.StatusActive)
	wantKind(t, err, collab.ErrConflict)
}

func TestCreate_References(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner")

	missing := primitive.NewObjectID()
	_, err := e.svc.Create(ctx, owner, collab.CreateInput{Title: "x", OriginalMemeID: &missing})
	wantKind(t, err, collab.ErrNotFound)

	_, err = e.svc.Create(ctx, owner, collab.CreateInput{Title: "x", Type: models.CollabTypeChallengeResponse, ChallengeID: &missing})
	wantKind(t, err, collab.ErrNotFound)

	other := e.groups.Add(primitive.NewObjectID())
	_, err = e.svc.Create(ctx, owner, collab.CreateInput{Title: "x", GroupID: &other})
	wantKind(t, err, collab.ErrForbidden)

	mine := e.groups.Add(owner)
	c, err := e.svc.Create(ctx, owner, collab.CreateInput{Title: "<script>x</script>Group remix", GroupID: &mine, Tags: []string{"Cats"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Title != "Group remix" || c.Status != models.StatusDraft {
		t.Errorf("created = %q %q", c.Title, c.Status)
	}
}

func TestCreateVersion_UnknownMeme(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	c := e.create(t, owner, 5, false)

	_, err := e.svc.CreateVersion(context.Background(), c.ID, owner, collab.VersionInput{Title: "v", MemeID: primitive.NewObjectID()})
	wantKind(t, err, collab.ErrNotFound)
	_, err = e.svc.CreateVersion(context.Background(), c.ID, owner, collab.VersionInput{Title: "v"})
	wantKind(t, err, collab.ErrValidation)
}

func TestApproveAndSetCurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, reviewer := e.user(t, "owner"), e.user(t, "rev")
	c := e.create(t, owner, 5, true)
	if _, err := e.svc.Invite(ctx, c.ID, owner, "rev", models.RoleReviewer, ""); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if _, err := e.svc.AcceptInvite(ctx, c.ID, reviewer); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	m := e.memes.Add()
	for i := 0; i < 2; i++ {
		v, err := e.svc.CreateVersion(ctx, c.ID, owner, collab.VersionInput{Title: "v", MemeID: m})
		if err != nil {
			t.Fatalf("CreateVersion: %v", err)
		}
		if v.Approved {
			t.Error("approval-required versions start unapproved")
		}
	}
	v, err := e.svc.ApproveVersion(ctx, c.ID, reviewer, 1)
	if err != nil || !v.Approved || v.ApprovedBy == nil || *v.ApprovedBy != reviewer {
		t.Fatalf("ApproveVersion = %+v, %v", v, err)
	}
	_, err = e.svc.ApproveVersion(ctx, c.ID, reviewer, 1)
	wantKind(t, err, collab.ErrConflict)

	got, err := e.svc.SetCurrentVersion(ctx, c.ID, owner, 1)
	if err != nil {
		t.Fatalf("SetCurrentVersion: %v", err)
	}
	if !got.Versions[0].IsCurrent || got.Versions[1].IsCurrent {
		t.Error("version 1 should be the single current version")
	}
}

func TestCommentsAndActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, u := e.user(t, "owner"), e.user(t, "u")
	c := e.create(t, owner, 5, false)
	if _, err := e.svc.Join(ctx, c.ID, u, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	cm, err := e.svc.AddComment(ctx, c.ID, collab.Viewer{ID: u}, collab.CommentInput{Content: `<em>nice</em><script>x()</script>`})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if cm.Content != "<em>nice</em>" {
		t.Errorf("content = %q", cm.Content)
	}
	reply, err := e.svc.AddComment(ctx, c.ID, collab.Viewer{ID: owner}, collab.CommentInput{Content: "thanks", ParentID: &cm.ID})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.UserID != owner {
		t.Errorf("reply = %+v", reply)
	}
	_, err = e.svc.AddComment(ctx, c.ID, collab.Viewer{}, collab.CommentInput{Content: "anon"})
	wantKind(t, err, collab.ErrForbidden)

	if err := e.svc.TrackActivity(ctx, c.ID, u, "shared"); err != nil {
		t.Fatalf("TrackActivity: %v", err)
	}
	stored := e.repo.Stored(c.ID)
	if stored.Stats.TotalComments != 2 || stored.Collaborators[0].ContributionScore != 5+1 {
		t.Errorf("comments=%d score=%d", stored.Stats.TotalComments, stored.Collaborators[0].ContributionScore)
	}
	wantKind(t, e.svc.TrackActivity(ctx, c.ID, e.user(t, "x"), "shared"), collab.ErrForbidden)
}

func TestUpdateCollaboratorRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, u := e.user(t, "owner"), e.user(t, "u")
	c := e.create(t, owner, 5, false)
	if _, err := e.svc.Join(ctx, c.ID, u, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := e.svc.UpdateCollaboratorRole(ctx, c.ID, owner, u, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateCollaboratorRole: %v", err)
	}
	if r, _ := collab.RoleOf(e.repo.Stored(c.ID), u); r != models.RoleAdmin {
		t.Errorf("role = %q", r)
	}
	wantKind(t, e.svc.RemoveCollaborator(ctx, c.ID, owner, primitive.NewObjectID()), collab.ErrNotFound)
}

func TestMutate_RetriesStaleWrites(t *testing.T) {
	e := newEnv(t)
	owner, u := e.user(t, "owner"), e.user(t, "u")
	c := e.create(t, owner, 5, false)

	e.repo.StaleSaves = 2
	if _, err := e.svc.Join(context.Background(), c.ID, u, ""); err != nil {
		t.Fatalf("Join after two lost races: %v", err)
	}
	if n := len(e.repo.Stored(c.ID).Collaborators); n != 1 {
		t.Errorf("collaborators = %d, want exactly 1", n)
	}

	e.repo.StaleSaves = 3
	_, err := e.svc.Join(context.Background(), c.ID, e.user(t, "v"), "")
	wantKind(t, err, collab.ErrConflict)
}

type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, key string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestMutate_LockTimeoutIsConflict(t *testing.T) {
	repo := testutil.NewMemRepo()
	users := testutil.NewMemUsers()
	owner := users.Add(models.User{Username: "owner"}).ID
	c, _ := collab.New(owner, collab.CreateInput{Title: "busy", Status: models.StatusActive}, t0)
	_ = repo.Insert(context.Background(), c)

	svc := collabservice.New(collabservice.Deps{Repo: repo, Users: users, Locker: busyLocker{}})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.Join(ctx, c.ID, primitive.NewObjectID(), "")
	wantKind(t, err, collab.ErrConflict)
}

func TestMerge_RepeatedMergeDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, forker := e.user(t, "owner"), e.user(t, "forker")
	c := e.create(t, owner, 5, false)
	fork, err := e.svc.Fork(ctx, c.ID, collab.Viewer{ID: forker}, "")
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if fork.Title != "Fork of Distracted boyfriend" {
		t.Errorf("default fork title = %q", fork.Title)
	}
	if _, err := e.svc.CreateVersion(ctx, fork.ID, forker, collab.VersionInput{Title: "f", MemeID: e.memes.Add()}); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	opts := models.MergeOptions{MergeVersions: true}
	for i := 0; i < 2; i++ {
		if _, err := e.svc.Merge(ctx, c.ID, owner, fork.ID, opts); err != nil {
			t.Fatalf("Merge %d: %v", i, err)
		}
	}
	stored := e.repo.Stored(c.ID)
	if len(stored.Versions) != 2 || len(stored.MergeHistory) != 2 {
		t.Errorf("versions=%d history=%d; repeated merges copy again", len(stored.Versions), len(stored.MergeHistory))
	}

	unrelated := e.create(t, forker, 5, false)
	_, err = e.svc.Merge(ctx, c.ID, owner, unrelated.ID, opts)
	wantKind(t, err, collab.ErrConflict)
	_, err = e.svc.Merge(ctx, c.ID, owner, primitive.NewObjectID(), opts)
	wantKind(t, err, collab.ErrNotFound)
}

func TestForkAndListForks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, a := e.user(t, "owner"), e.user(t, "a")
	c := e.create(t, owner, 20, false)

	_, err := e.svc.Fork(ctx, c.ID, collab.Viewer{}, "")
	wantKind(t, err, collab.ErrForbidden)

	f, err := e.svc.Fork(ctx, c.ID, collab.Viewer{ID: a}, "")
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if f.Settings.MaxCollaborators != collab.ForkMaxCollaborators {
		t.Errorf("fork max collaborators = %d", f.Settings.MaxCollaborators)
	}
	forks, err := e.svc.ListForks(ctx, c.ID, collab.Viewer{}, 0)
	if err != nil || len(forks) != 1 || forks[0].ID != f.ID {
		t.Fatalf("ListForks = %v, %v", forks, err)
	}

	no := false
	if _, err := e.svc.Update(ctx, c.ID, owner, collab.Patch{Settings: &collab.SettingsInput{AllowForks: &no}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err = e.svc.Fork(ctx, c.ID, collab.Viewer{ID: a}, "")
	wantKind(t, err, collab.ErrConflict)
}

func TestListAndInsights(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner, u := e.user(t, "owner"), e.user(t, "u")
	e.create(t, owner, 5, false)
	draft, err := e.svc.Create(ctx, owner, collab.CreateInput{Title: "Draft idea"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := e.svc.List(ctx, collab.Viewer{}, false, collabstore.ListFilter{}, paging.Params{})
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("public list = %d items, %v", len(page.Items), err)
	}
	page, err = e.svc.List(ctx, collab.Viewer{ID: owner}, true, collabstore.ListFilter{}, paging.Params{})
	if err != nil || len(page.Items) != 2 {
		t.Fatalf("mine list = %d items, %v", len(page.Items), err)
	}
	_, err = e.svc.List(ctx, collab.Viewer{}, true, collabstore.ListFilter{}, paging.Params{})
	wantKind(t, err, collab.ErrForbidden)
	_, err = e.svc.List(ctx, collab.Viewer{ID: u}, false, collabstore.ListFilter{Status: "bogus"}, paging.Params{})
	wantKind(t, err, collab.ErrValidation)

	e.now = t0.Add(8 * 24 * time.Hour)
	in, err := e.svc.Insights(ctx, draft.ID, collab.Viewer{ID: owner})
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if !in.Flags.NeedsAttention {
		t.Error("an 8-day-old collaboration without versions needs attention")
	}
}
