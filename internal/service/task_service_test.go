package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-service/internal/audit"
	"taskboard-service/internal/model"
)

func TestTaskCreate(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	task, err := svc.Create(principalOf(user), project.ID, CreateTaskInput{
		Title:      "Write docs",
		Priority:   model.PriorityHigh,
		AssignedTo: &user.ID,
		DueDate:    &due,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, task.Status)
	assert.Equal(t, tenant.ID, task.TenantID)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, user.ID, *task.AssignedTo)
	assert.Contains(t, auditActions(t, db), audit.ActionCreateTask)
}

func TestTaskCreateForeignAssignee(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	other := seedTenant(t, db, "globex", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	outsider := seedUser(t, db, other, "user@globex.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")

	_, err := svc.Create(principalOf(user), project.ID, CreateTaskInput{
		Title:      "Sneaky",
		Priority:   model.PriorityLow,
		AssignedTo: &outsider.ID,
	})
	requireAppError(t, err, http.StatusBadRequest, "assigned user does not belong to this tenant")
}

func TestTaskCreateUnknownProject(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)

	_, err := svc.Create(principalOf(user), uuid.New(), CreateTaskInput{Title: "X", Priority: model.PriorityLow})
	requireAppError(t, err, http.StatusNotFound, "project not found")
}

func TestTaskCreateForeignProject(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	other := seedTenant(t, db, "globex", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	outsider := seedUser(t, db, other, "user@globex.test", model.RoleUser, true)
	project := seedProject(t, db, other, outsider, "Theirs")

	// The project exists, so a wrong tenant is an explicit refusal.
	_, err := svc.Create(principalOf(user), project.ID, CreateTaskInput{Title: "X", Priority: model.PriorityLow})
	requireAppError(t, err, http.StatusForbidden, "project does not belong to your tenant")
}

func TestTaskListPriorityOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	seedTask(t, db, project, "Low", model.TaskStatusTodo, model.PriorityLow)
	seedTask(t, db, project, "High", model.TaskStatusTodo, model.PriorityHigh)
	seedTask(t, db, project, "Medium", model.TaskStatusTodo, model.PriorityMedium)

	result, err := svc.List(principalOf(user), project.ID, TaskListFilter{})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 3)
	assert.Equal(t, "High", result.Tasks[0].Title)
	assert.Equal(t, "Medium", result.Tasks[1].Title)
	assert.Equal(t, "Low", result.Tasks[2].Title)
}

func TestTaskListDueDateBreaksTies(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")

	later := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	taskLater := seedTask(t, db, project, "Later", model.TaskStatusTodo, model.PriorityHigh)
	require.NoError(t, db.Model(taskLater).Update("due_date", later).Error)
	taskSooner := seedTask(t, db, project, "Sooner", model.TaskStatusTodo, model.PriorityHigh)
	require.NoError(t, db.Model(taskSooner).Update("due_date", sooner).Error)

	result, err := svc.List(principalOf(user), project.ID, TaskListFilter{})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "Sooner", result.Tasks[0].Title)
	assert.Equal(t, "Later", result.Tasks[1].Title)
}

func TestTaskListFilters(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	assigned := seedTask(t, db, project, "Assigned", model.TaskStatusInProgress, model.PriorityHigh)
	require.NoError(t, db.Model(assigned).Update("assigned_to", user.ID).Error)
	seedTask(t, db, project, "Unassigned", model.TaskStatusTodo, model.PriorityLow)

	result, err := svc.List(principalOf(user), project.ID, TaskListFilter{Status: model.TaskStatusInProgress})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "Assigned", result.Tasks[0].Title)

	result, err = svc.List(principalOf(user), project.ID, TaskListFilter{AssignedTo: &user.ID})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	require.NotNil(t, result.Tasks[0].AssignedTo)
	assert.Equal(t, "user@acme.test", result.Tasks[0].AssignedTo.Email)

	result, err = svc.List(principalOf(user), project.ID, TaskListFilter{Search: "UNASSIGNED"})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "Unassigned", result.Tasks[0].Title)
}

func TestTaskUpdateStatus(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityHigh)

	result, err := svc.UpdateStatus(principalOf(user), task.ID, model.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, result.Status)
	assert.Contains(t, auditActions(t, db), audit.ActionUpdateTaskStatus)
}

func TestTaskUpdateStatusForeignTenant(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	other := seedTenant(t, db, "globex", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	outsider := seedUser(t, db, other, "user@globex.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityHigh)

	_, err := svc.UpdateStatus(principalOf(outsider), task.ID, model.TaskStatusCompleted)
	requireAppError(t, err, http.StatusForbidden, "task does not belong to your tenant")
}

func TestTaskUpdate(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityLow)

	result, err := svc.Update(principalOf(user), task.ID, TaskUpdate{
		Title:      strPtr("Ship it"),
		Priority:   strPtr(model.PriorityHigh),
		AssignedTo: &user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship it", result.Title)
	assert.Equal(t, model.PriorityHigh, result.Priority)
	require.NotNil(t, result.AssignedTo)
	assert.Equal(t, user.ID, result.AssignedTo.ID)
}

func TestTaskUpdateClearAssigneeAndDueDate(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityHigh)
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(task).Updates(map[string]interface{}{"assigned_to": user.ID, "due_date": due}).Error)

	result, err := svc.Update(principalOf(user), task.ID, TaskUpdate{ClearAssignee: true, ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, result.AssignedTo)
	assert.Nil(t, result.DueDate)
}

func TestTaskUpdateForeignAssignee(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	other := seedTenant(t, db, "globex", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	outsider := seedUser(t, db, other, "user@globex.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityHigh)

	_, err := svc.Update(principalOf(user), task.ID, TaskUpdate{AssignedTo: &outsider.ID})
	requireAppError(t, err, http.StatusBadRequest, "assigned user does not belong to this tenant")
}

func TestTaskUpdateNoFields(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)
	project := seedProject(t, db, tenant, user, "Launch")
	task := seedTask(t, db, project, "Ship", model.TaskStatusTodo, model.PriorityHigh)

	_, err := svc.Update(principalOf(user), task.ID, TaskUpdate{})
	requireAppError(t, err, http.StatusBadRequest, "no valid fields to update")
}

func TestTaskUpdateUnknown(t *testing.T) {
	db := openTestDB(t)
	svc := NewTaskService(db, testRecorder(db))
	tenant := seedTenant(t, db, "acme", model.PlanFree)
	user := seedUser(t, db, tenant, "user@acme.test", model.RoleUser, true)

	_, err := svc.Update(principalOf(user), uuid.New(), TaskUpdate{Title: strPtr("x")})
	requireAppError(t, err, http.StatusNotFound, "task not found")
}
