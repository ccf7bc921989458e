package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) to(userID string) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type testEnv struct {
	svc   *Service
	store *storage.SQLiteStorage
	sent  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "synergy.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sent := &recordingNotifier{}
	svc := New(store, sent, Config{BcryptCost: bcrypt.MinCost})

	// Every read of the clock advances it, so updated_at always moves.
	var mu sync.Mutex
	clock := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	})

	return &testEnv{svc: svc, store: store, sent: sent}
}

const testPassword = "Correct-Horse-42"

func (e *testEnv) register(t *testing.T, email, first string) *models.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), RegisterInput{
		Email: email, Password: testPassword, FirstName: first, LastName: "Tester",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func (e *testEnv) project(t *testing.T, owner *models.User) *models.Project {
	t.Helper()
	p, err := e.svc.CreateProject(context.Background(), owner.ID, ProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func (e *testEnv) addMember(t *testing.T, owner *models.User, projectID, email string) *models.User {
	t.Helper()
	res, err := e.svc.AddMember(context.Background(), owner.ID, projectID, email)
	if err != nil {
		t.Fatalf("add member %s: %v", email, err)
	}
	return res.Member
}

func (e *testEnv) task(t *testing.T, actor *models.User, projectID string, in TaskInput) *models.Task {
	t.Helper()
	if in.Title == "" {
		in.Title = "Write report"
	}
	res, err := e.svc.CreateTask(context.Background(), actor.ID, projectID, in)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return res.Task
}

func (e *testEnv) setStatus(t *testing.T, actor *models.User, taskID string, st models.TaskStatus) StatusChange {
	t.Helper()
	res, err := e.svc.UpdateTaskStatus(context.Background(), actor.ID, taskID, string(st))
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	return res.Status
}

func (e *testEnv) projectRow(t *testing.T, id string) *models.Project {
	t.Helper()
	p, err := e.store.Projects().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	return p
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestCreateProject_CreatorIsAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")

	p := env.project(t, owner)
	if p.Status != models.ProjectActive || p.Color != models.DefaultProjectColor {
		t.Errorf("new project = %+v", p)
	}

	role, err := env.store.Members().GetRole(ctx, p.ID, owner.ID)
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if role != models.MemberRoleAdmin {
		t.Errorf("creator role = %q, want admin", role)
	}

	_, err = env.svc.CreateProject(ctx, owner.ID, ProjectInput{Name: "   "})
	wantKind(t, err, KindValidation)
}

func TestOwnerBypassWithoutMembershipRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)

	if _, err := env.store.Members().Remove(ctx, p.ID, owner.ID); err != nil {
		t.Fatalf("remove owner row: %v", err)
	}

	if _, err := env.svc.GetProject(ctx, owner.ID, p.ID); err != nil {
		t.Errorf("GetProject: %v", err)
	}
	if _, err := env.svc.UpdateProject(ctx, owner.ID, p.ID, ProjectInput{Name: "Renamed"}); err != nil {
		t.Errorf("UpdateProject: %v", err)
	}
	env.task(t, owner, p.ID, TaskInput{})
	if _, err := env.svc.AddMember(ctx, owner.ID, p.ID, "member.one@gmail.com"); err != nil {
		t.Errorf("AddMember: %v", err)
	}
}

func TestStatusFollowsTasks(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)

	var tasks []*models.Task
	for i := 0; i < 3; i++ {
		tasks = append(tasks, env.task(t, owner, p.ID, TaskInput{}))
	}
	env.setStatus(t, owner, tasks[0].ID, models.TaskDone)
	change := env.setStatus(t, owner, tasks[1].ID, models.TaskDone)
	if change.Current != models.ProjectActive || change.Changed() {
		t.Fatalf("after 2/3 done: %+v", change)
	}

	change = env.setStatus(t, owner, tasks[2].ID, models.TaskDone)
	if change.Current != models.ProjectCompleted || !change.Changed() {
		t.Fatalf("after 3/3 done: %+v", change)
	}
	if got := change.Message("Task updated"); got != "Task updated - project marked as completed" {
		t.Errorf("message = %q", got)
	}
	if got := env.projectRow(t, p.ID).Status; got != models.ProjectCompleted {
		t.Errorf("stored status = %q", got)
	}

	// Reopening a task makes the project active again.
	change = env.setStatus(t, owner, tasks[1].ID, models.TaskInProgress)
	if change.Current != models.ProjectActive || !change.Changed() {
		t.Fatalf("after reopen: %+v", change)
	}

	// A new task on a completed project reactivates it.
	env.setStatus(t, owner, tasks[1].ID, models.TaskDone)
	res, err := env.svc.CreateTask(context.Background(), owner.ID, p.ID, TaskInput{Title: "One more"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if res.Status.Previous != models.ProjectCompleted || res.Status.Current != models.ProjectActive {
		t.Errorf("create on completed project: %+v", res.Status)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})

	first := env.setStatus(t, owner, task.ID, models.TaskDone)
	before := env.projectRow(t, p.ID)
	second := env.setStatus(t, owner, task.ID, models.TaskDone)
	after := env.projectRow(t, p.ID)

	if first.Current != models.ProjectCompleted || second.Current != models.ProjectCompleted {
		t.Fatalf("statuses = %q, %q", first.Current, second.Current)
	}
	if second.Changed() {
		t.Error("second identical update should not report a change")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("recompute should still bump updated_at")
	}
}

func TestDeleteLastOpenTaskCompletesProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)

	done1 := env.task(t, owner, p.ID, TaskInput{})
	done2 := env.task(t, owner, p.ID, TaskInput{})
	open := env.task(t, owner, p.ID, TaskInput{})
	env.setStatus(t, owner, done1.ID, models.TaskDone)
	env.setStatus(t, owner, done2.ID, models.TaskDone)

	res, err := env.svc.DeleteTask(ctx, owner.ID, open.ID)
	if err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if res.Status.Current != models.ProjectCompleted {
		t.Errorf("status after delete = %q, want completed", res.Status.Current)
	}
}

func TestDeleteOnlyTaskLeavesProjectActive(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})
	env.setStatus(t, owner, task.ID, models.TaskDone)

	res, err := env.svc.DeleteTask(context.Background(), owner.ID, task.ID)
	if err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if res.Status.Current != models.ProjectActive {
		t.Errorf("empty project status = %q, want active", res.Status.Current)
	}
}

func TestPriorityUpdateDoesNotTouchProject(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})
	env.setStatus(t, owner, task.ID, models.TaskDone)

	before := env.projectRow(t, p.ID)
	got, err := env.svc.UpdateTaskPriority(context.Background(), owner.ID, task.ID, "high")
	if err != nil {
		t.Fatalf("update priority: %v", err)
	}
	after := env.projectRow(t, p.ID)

	if got.Priority != models.PriorityHigh {
		t.Errorf("priority = %q", got.Priority)
	}
	if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("project changed: before %s/%v after %s/%v", before.Status, before.UpdatedAt, after.Status, after.UpdatedAt)
	}

	_, err = env.svc.UpdateTaskPriority(context.Background(), owner.ID, task.ID, "urgent")
	wantKind(t, err, KindValidation)
}

func TestUpdateTaskDoesNotRecompute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})

	before := env.projectRow(t, p.ID)
	updated, err := env.svc.UpdateTask(ctx, owner.ID, task.ID, TaskInput{
		Title: "Renamed", Priority: "low", DueDate: "2026-06-01",
	})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	after := env.projectRow(t, p.ID)

	if updated.Title != "Renamed" || updated.Priority != models.PriorityLow || updated.DueDate == nil {
		t.Errorf("updated = %+v", updated)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("general edit should not write the project")
	}
}

func TestTaskCannotMoveProjects(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p1 := env.project(t, owner)
	p2 := env.project(t, owner)
	task := env.task(t, owner, p1.ID, TaskInput{})

	_, err := env.svc.UpdateTask(context.Background(), owner.ID, task.ID, TaskInput{
		ProjectID: p2.ID, Title: task.Title,
	})
	wantKind(t, err, KindValidation)

	stored, err := env.store.Tasks().GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.ProjectID != p1.ID {
		t.Errorf("task moved to %s", stored.ProjectID)
	}
}

func TestStrangerIsDeniedWithoutWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	stranger := env.register(t, "stranger@example.com", "Sam")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})
	before := env.projectRow(t, p.ID)

	_, err := env.svc.CreateTask(ctx, stranger.ID, p.ID, TaskInput{Title: "Sneaky"})
	wantKind(t, err, KindAccessDenied)
	_, err = env.svc.UpdateTaskStatus(ctx, stranger.ID, task.ID, "done")
	wantKind(t, err, KindAccessDenied)
	_, err = env.svc.DeleteTask(ctx, stranger.ID, task.ID)
	wantKind(t, err, KindAccessDenied)
	_, err = env.svc.SendMessage(ctx, stranger.ID, p.ID, MessageInput{Content: "hi"})
	wantKind(t, err, KindAccessDenied)
	_, err = env.svc.AddMember(ctx, stranger.ID, p.ID, "member.one@gmail.com")
	wantKind(t, err, KindAccessDenied)

	total, done, err := env.store.Tasks().CountByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 || done != 0 {
		t.Errorf("tasks = %d/%d, want 1/0", total, done)
	}
	after := env.projectRow(t, p.ID)
	if after.Status != before.Status || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("project row changed after denied mutations")
	}
	if u, _ := env.store.Users().GetByEmail(ctx, "member.one@gmail.com"); u != nil {
		t.Error("denied invite provisioned a user")
	}
}

func TestMissingAndForbiddenLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	stranger := env.register(t, "stranger@example.com", "Sam")
	p := env.project(t, owner)
	task := env.task(t, owner, p.ID, TaskInput{})

	_, errForbidden := env.svc.GetProject(ctx, stranger.ID, p.ID)
	_, errMissing := env.svc.GetProject(ctx, stranger.ID, "does-not-exist")
	if errForbidden == nil || errMissing == nil || errForbidden.Error() != errMissing.Error() {
		t.Errorf("project errors differ: %v vs %v", errForbidden, errMissing)
	}

	_, errForbidden = env.svc.GetTask(ctx, stranger.ID, task.ID)
	_, errMissing = env.svc.GetTask(ctx, stranger.ID, "does-not-exist")
	if errForbidden == nil || errMissing == nil || errForbidden.Error() != errMissing.Error() {
		t.Errorf("task errors differ: %v vs %v", errForbidden, errMissing)
	}
	if !errors.Is(errMissing, ErrAccessDenied) {
		t.Errorf("missing task error = %v, want access denied", errMissing)
	}
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)

	res, err := env.svc.AddMember(ctx, owner.ID, p.ID, "Jane.Doe99@gmail.com")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if !res.Provisioned || res.TemporaryPassword == "" {
		t.Fatalf("expected a provisioned account, got %+v", res)
	}
	if res.Member.Email != "jane.doe99@gmail.com" || res.Member.DisplayName != "Jane Doe99" {
		t.Errorf("member = %+v", res.Member)
	}
	if _, err := env.svc.Authenticate(ctx, "jane.doe99@gmail.com", res.TemporaryPassword); err != nil {
		t.Errorf("temporary password rejected: %v", err)
	}
	settings, err := env.store.Settings().Get(ctx, res.Member.ID)
	if err != nil || settings == nil {
		t.Fatalf("settings = %v, %v", settings, err)
	}

	notes := env.sent.to(res.Member.ID)
	if len(notes) != 1 || notes[0].Title != "Welcome to Synergy!" {
		t.Fatalf("notifications = %+v", notes)
	}
	if strings.Contains(notes[0].Message, res.TemporaryPassword) {
		t.Error("notification leaks the temporary password")
	}

	_, err = env.svc.AddMember(ctx, owner.ID, p.ID, "jane.doe99@gmail.com")
	wantKind(t, err, KindConflict)

	members, err := env.svc.ListMembers(ctx, owner.ID, p.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}
}

func TestAddMemberRejectsCreatorAndBadEmails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "olivia.owner@gmail.com", "Olivia")
	p := env.project(t, owner)

	_, err := env.svc.AddMember(ctx, owner.ID, p.ID, "olivia.owner@gmail.com")
	wantKind(t, err, KindConflict)

	for _, email := range []string{"short@gmail.com", "someone@yahoo.com", "two..dots@gmail.com", ".leading@gmail.com"} {
		_, err := env.svc.AddMember(ctx, owner.ID, p.ID, email)
		wantKind(t, err, KindValidation)
	}
}

func TestExistingUserGetsAddedNotification(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	existing := env.register(t, "existing.user@gmail.com", "Eve")
	p := env.project(t, owner)

	res, err := env.svc.AddMember(context.Background(), owner.ID, p.ID, existing.Email)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if res.Provisioned || res.TemporaryPassword != "" {
		t.Errorf("existing user should not be provisioned: %+v", res)
	}
	notes := env.sent.to(existing.ID)
	if len(notes) != 1 || notes[0].Title != "Added to Project" {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestMemberCannotManageMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	member := env.addMember(t, owner, p.ID, "member.one@gmail.com")
	other := env.addMember(t, owner, p.ID, "member.two@gmail.com")

	_, err := env.svc.AddMember(ctx, member.ID, p.ID, "member.three@gmail.com")
	wantKind(t, err, KindAccessDenied)
	_, err = env.svc.RemoveMember(ctx, member.ID, p.ID, other.ID)
	wantKind(t, err, KindAccessDenied)
	err = env.svc.SetMemberRole(ctx, member.ID, p.ID, other.ID, "admin")
	wantKind(t, err, KindAccessDenied)

	// Promoted admins gain membership management.
	if err := env.svc.SetMemberRole(ctx, owner.ID, p.ID, member.ID, "admin"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := env.svc.RemoveMember(ctx, member.ID, p.ID, other.ID); err != nil {
		t.Errorf("admin remove: %v", err)
	}
}

func TestCreatorCannotBeRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	admin := env.addMember(t, owner, p.ID, "admin.user@gmail.com")
	if err := env.svc.SetMemberRole(ctx, owner.ID, p.ID, admin.ID, "admin"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	_, err := env.svc.RemoveMember(ctx, admin.ID, p.ID, owner.ID)
	wantKind(t, err, KindConflict)
	_, err = env.svc.RemoveMember(ctx, owner.ID, p.ID, owner.ID)
	wantKind(t, err, KindConflict)
	err = env.svc.SetMemberRole(ctx, admin.ID, p.ID, owner.ID, "member")
	wantKind(t, err, KindConflict)

	role, err := env.store.Members().GetRole(ctx, p.ID, owner.ID)
	if err != nil || role != models.MemberRoleAdmin {
		t.Errorf("creator role = %q, %v", role, err)
	}
}

func TestRemoveMemberUnassignsTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p1 := env.project(t, owner)
	p2 := env.project(t, owner)
	member := env.addMember(t, owner, p1.ID, "member.one@gmail.com")
	env.addMember(t, owner, p2.ID, member.Email)

	here := env.task(t, owner, p1.ID, TaskInput{AssignedTo: member.ID})
	there := env.task(t, owner, p2.ID, TaskInput{AssignedTo: member.ID})

	if _, err := env.svc.RemoveMember(ctx, owner.ID, p1.ID, member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	got, _ := env.store.Tasks().GetByID(ctx, here.ID)
	if got.AssignedTo != "" {
		t.Errorf("task in removed project still assigned to %q", got.AssignedTo)
	}
	got, _ = env.store.Tasks().GetByID(ctx, there.ID)
	if got.AssignedTo != member.ID {
		t.Errorf("task in other project lost its assignee")
	}

	_, err := env.svc.RemoveMember(ctx, owner.ID, p1.ID, member.ID)
	wantKind(t, err, KindNotFound)
	_, err = env.svc.GetProject(ctx, member.ID, p1.ID)
	wantKind(t, err, KindAccessDenied)
}

func TestDeleteTaskPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	author := env.addMember(t, owner, p.ID, "author.one@gmail.com")
	bystander := env.addMember(t, owner, p.ID, "bystander@gmail.com")

	byAuthor := env.task(t, author, p.ID, TaskInput{})
	_, err := env.svc.DeleteTask(ctx, bystander.ID, byAuthor.ID)
	wantKind(t, err, KindAccessDenied)
	if _, err := env.svc.DeleteTask(ctx, author.ID, byAuthor.ID); err != nil {
		t.Errorf("task creator delete: %v", err)
	}

	another := env.task(t, author, p.ID, TaskInput{})
	if _, err := env.svc.DeleteTask(ctx, owner.ID, another.ID); err != nil {
		t.Errorf("project creator delete: %v", err)
	}

	third := env.task(t, author, p.ID, TaskInput{})
	if err := env.svc.SetMemberRole(ctx, owner.ID, p.ID, bystander.ID, "admin"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := env.svc.DeleteTask(ctx, bystander.ID, third.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	admin := env.addMember(t, owner, p.ID, "admin.user@gmail.com")
	if err := env.svc.SetMemberRole(ctx, owner.ID, p.ID, admin.ID, "admin"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	task := env.task(t, owner, p.ID, TaskInput{})
	if _, err := env.svc.SendMessage(ctx, owner.ID, p.ID, MessageInput{Content: "kickoff"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := env.svc.SendMessage(ctx, admin.ID, p.ID, MessageInput{Content: "on it", TaskID: task.ID}); err != nil {
		t.Fatalf("send task message: %v", err)
	}

	_, err := env.svc.DeleteProject(ctx, admin.ID, p.ID)
	wantKind(t, err, KindAccessDenied)

	if _, err := env.svc.DeleteProject(ctx, owner.ID, p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if env.projectRow(t, p.ID) != nil {
		t.Error("project still exists")
	}
	if got, _ := env.store.Tasks().GetByID(ctx, task.ID); got != nil {
		t.Error("task still exists")
	}
	if role, _ := env.store.Members().GetRole(ctx, p.ID, admin.ID); role != "" {
		t.Error("membership still exists")
	}
	msgs, err := env.store.Messages().ListByProject(ctx, p.ID, 10)
	if err != nil || len(msgs) != 0 {
		t.Errorf("messages = %d, %v", len(msgs), err)
	}
}

func TestAssignmentNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	stranger := env.register(t, "stranger@example.com", "Sam")
	p := env.project(t, owner)
	member := env.addMember(t, owner, p.ID, "member.one@gmail.com")
	before := len(env.sent.to(member.ID))

	task := env.task(t, owner, p.ID, TaskInput{Title: "Draft", AssignedTo: member.ID})
	notes := env.sent.to(member.ID)
	if len(notes) != before+1 || notes[len(notes)-1].Title != "New Task Assigned" {
		t.Fatalf("notifications = %+v", notes)
	}
	if notes[len(notes)-1].TaskID != task.ID {
		t.Errorf("notification task = %q", notes[len(notes)-1].TaskID)
	}

	env.task(t, owner, p.ID, TaskInput{AssignedTo: owner.ID})
	if n := len(env.sent.to(owner.ID)); n != 0 {
		t.Errorf("self assignment sent %d notifications", n)
	}

	_, err := env.svc.CreateTask(ctx, owner.ID, p.ID, TaskInput{Title: "x", AssignedTo: stranger.ID})
	wantKind(t, err, KindValidation)
}

func TestMessagesNotifyOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p1 := env.project(t, owner)
	p2 := env.project(t, owner)
	member := env.addMember(t, owner, p1.ID, "member.one@gmail.com")
	foreign := env.task(t, owner, p2.ID, TaskInput{})
	memberNotes := len(env.sent.to(member.ID))

	msg, err := env.svc.SendMessage(ctx, owner.ID, p1.ID, MessageInput{Content: "  hello team  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello team" || msg.AuthorName != "Olivia Tester" {
		t.Errorf("message = %+v", msg)
	}
	if n := len(env.sent.to(member.ID)); n != memberNotes+1 {
		t.Errorf("member notifications = %d", n)
	}
	if n := len(env.sent.to(owner.ID)); n != 0 {
		t.Errorf("sender notified %d times", n)
	}

	_, err = env.svc.SendMessage(ctx, owner.ID, p1.ID, MessageInput{Content: "x", TaskID: foreign.ID})
	wantKind(t, err, KindValidation)
	_, err = env.svc.SendMessage(ctx, owner.ID, p1.ID, MessageInput{Content: " "})
	wantKind(t, err, KindValidation)

	msgs, err := env.svc.ListMessages(ctx, member.ID, p1.ID)
	if err != nil || len(msgs) != 1 {
		t.Errorf("messages = %d, %v", len(msgs), err)
	}
}

func TestMyTasksOrdering(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)

	done := env.task(t, owner, p.ID, TaskInput{Title: "done", AssignedTo: owner.ID})
	env.setStatus(t, owner, done.ID, models.TaskDone)
	undated := env.task(t, owner, p.ID, TaskInput{Title: "undated", AssignedTo: owner.ID})
	late := env.task(t, owner, p.ID, TaskInput{Title: "late", AssignedTo: owner.ID, DueDate: "2026-09-01"})
	soon := env.task(t, owner, p.ID, TaskInput{Title: "soon", AssignedTo: owner.ID, DueDate: "2026-06-01"})
	active := env.task(t, owner, p.ID, TaskInput{Title: "active", AssignedTo: owner.ID})
	env.setStatus(t, owner, active.ID, models.TaskInProgress)
	env.task(t, owner, p.ID, TaskInput{Title: "unassigned"})

	tasks, err := env.svc.MyTasks(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("my tasks: %v", err)
	}
	want := []string{soon.ID, late.ID, undated.ID, active.ID, done.ID}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Title, id)
		}
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Person@Example.com", "Pat")

	if user.Email != "person@example.com" || user.DisplayName != "Pat Tester" {
		t.Errorf("user = %+v", user)
	}
	if user.PasswordHash == testPassword {
		t.Error("password stored in plain text")
	}

	_, err := env.svc.Register(ctx, RegisterInput{Email: "person@example.com", Password: testPassword, FirstName: "A", LastName: "B"})
	wantKind(t, err, KindConflict)
	_, err = env.svc.Register(ctx, RegisterInput{Email: "new@example.com", Password: "short", FirstName: "A", LastName: "B"})
	wantKind(t, err, KindValidation)

	if _, err := env.svc.Authenticate(ctx, "PERSON@example.com", testPassword); err != nil {
		t.Errorf("authenticate: %v", err)
	}
	_, err = env.svc.Authenticate(ctx, "person@example.com", "wrong")
	wantKind(t, err, KindUnauthenticated)
	_, err = env.svc.Authenticate(ctx, "nobody@example.com", testPassword)
	wantKind(t, err, KindUnauthenticated)
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "person@example.com", "Pat")

	token, _, err := models.NewRefreshToken(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if err := env.store.Tokens().Create(ctx, token); err != nil {
		t.Fatalf("store token: %v", err)
	}

	err = env.svc.ChangePassword(ctx, user.ID, "not-it", "Another-Secret-7")
	wantKind(t, err, KindValidation)

	if err := env.svc.ChangePassword(ctx, user.ID, testPassword, "Another-Secret-7"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := env.svc.Authenticate(ctx, user.Email, "Another-Secret-7"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	stored, err := env.store.Tokens().GetByTokenHash(ctx, token.TokenHash)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if !stored.Revoked() {
		t.Error("refresh token not revoked")
	}
}

func TestProfileAndSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "person@example.com", "Pat")

	renamed, err := env.svc.UpdateDisplayName(ctx, user.ID, "  Patty  ")
	if err != nil || renamed.DisplayName != "Patty" {
		t.Fatalf("rename = %+v, %v", renamed, err)
	}
	_, err = env.svc.UpdateDisplayName(ctx, user.ID, " ")
	wantKind(t, err, KindValidation)

	settings, err := env.svc.GetSettings(ctx, user.ID)
	if err != nil || !settings.NotificationsEnabled || !settings.EmailNotifications {
		t.Fatalf("defaults = %+v, %v", settings, err)
	}
	settings, err = env.svc.ToggleNotifications(ctx, user.ID)
	if err != nil || settings.NotificationsEnabled {
		t.Fatalf("toggle = %+v, %v", settings, err)
	}
	settings, err = env.svc.SetEmailNotifications(ctx, user.ID, false)
	if err != nil || settings.EmailNotifications || settings.NotificationsEnabled {
		t.Fatalf("email off = %+v, %v", settings, err)
	}
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "Alice")
	bob := env.register(t, "bob@example.com", "Bob")

	for i, uid := range []string{alice.ID, alice.ID, bob.ID} {
		n := &models.Notification{
			ID: string(rune('a' + i)), UserID: uid, Title: "t", Message: "m",
			Kind: models.NotificationInfo, CreatedAt: time.Now().UTC(),
		}
		if err := env.store.Notifications().Create(ctx, n); err != nil {
			t.Fatalf("create notification: %v", err)
		}
	}

	list, err := env.svc.ListNotifications(ctx, alice.ID)
	if err != nil || len(list.Items) != 2 || list.Unread != 2 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	err = env.svc.MarkNotificationRead(ctx, alice.ID, "c")
	wantKind(t, err, KindNotFound)
	if err := env.svc.MarkNotificationRead(ctx, alice.ID, "a"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, err := env.svc.MarkAllNotificationsRead(ctx, alice.ID)
	if err != nil || n != 1 {
		t.Errorf("mark all = %d, %v", n, err)
	}
	list, _ = env.svc.ListNotifications(ctx, alice.ID)
	if list.Unread != 0 {
		t.Errorf("unread = %d", list.Unread)
	}
}

func TestTeamOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com", "Olivia")
	p := env.project(t, owner)
	member := env.addMember(t, owner, p.ID, "member.one@gmail.com")
	a := env.task(t, owner, p.ID, TaskInput{AssignedTo: member.ID})
	env.task(t, owner, p.ID, TaskInput{AssignedTo: member.ID})
	env.setStatus(t, owner, a.ID, models.TaskDone)

	team, err := env.svc.TeamOverview(ctx, owner.ID)
	if err != nil {
		t.Fatalf("team: %v", err)
	}
	if len(team) != 2 {
		t.Fatalf("team size = %d", len(team))
	}
	for _, tm := range team {
		switch tm.UserID {
		case member.ID:
			if tm.Total != 2 || tm.Done != 1 || tm.Todo != 1 {
				t.Errorf("member counts = %+v", tm)
			}
			if len(tm.Projects) != 1 || !tm.Projects[0].CanRemove {
				t.Errorf("member projects = %+v", tm.Projects)
			}
		case owner.ID:
			if tm.Projects[0].CanRemove {
				t.Error("creator should not be removable")
			}
		}
	}

	team, err = env.svc.TeamOverview(ctx, member.ID)
	if err != nil {
		t.Fatalf("member view: %v", err)
	}
	for _, tm := range team {
		for _, tp := range tm.Projects {
			if tp.CanRemove {
				t.Errorf("plain member can remove %s", tm.UserID)
			}
		}
	}
}

func TestEmptyActorIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateProject(ctx, "", ProjectInput{Name: "x"})
	wantKind(t, err, KindUnauthenticated)
	_, err = env.svc.MyTasks(ctx, "")
	wantKind(t, err, KindUnauthenticated)
	_, err = env.svc.ListNotifications(ctx, "")
	wantKind(t, err, KindUnauthenticated)
}
