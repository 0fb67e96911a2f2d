package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ahmedhadihasan/iqraaexam/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetAssignment(id int64) (*models.Assignment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockStore) GetGrader(id int64) (*models.Grader, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grader), args.Error(1)
}

func (m *MockStore) GetTeam(id int64) (*models.Team, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockStore) GetGroup(id int64) (*models.QuestionGroup, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionGroup), args.Error(1)
}

func (m *MockStore) GetSession(id int64) (*models.ExamSession, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamSession), args.Error(1)
}

func (m *MockStore) GetStudent(id int64) (*models.Student, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStore) FindAssignment(studentID int64, sessionID *int64) (*models.Assignment, error) {
	args := m.Called(studentID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockStore) CreateAssignment(a *models.Assignment) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockStore) StartGrading(assignmentID, graderID, now int64) (int64, bool, error) {
	args := m.Called(assignmentID, graderID, now)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockStore) SubmitGrade(assignmentID, graderID int64, marks models.MarkSet, position, required int, now int64) (*models.GradeRecord, error) {
	args := m.Called(assignmentID, graderID, marks, position, required, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradeRecord), args.Error(1)
}

func (m *MockStore) SetBonusMark(assignmentID int64, mark float64, required int, now int64) error {
	args := m.Called(assignmentID, mark, required, now)
	return args.Error(0)
}

func (m *MockStore) ResetAssignmentTeam(assignmentID, teamID, now int64) error {
	args := m.Called(assignmentID, teamID, now)
	return args.Error(0)
}

func (m *MockStore) UpdateAssignmentGroup(assignmentID, groupID, now int64) error {
	args := m.Called(assignmentID, groupID, now)
	return args.Error(0)
}

func (m *MockStore) SetExamIncomplete(assignmentID int64, incomplete bool, now int64) error {
	args := m.Called(assignmentID, incomplete, now)
	return args.Error(0)
}

func (m *MockStore) ListBonusSyncCandidates() ([]models.BonusSyncCandidate, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BonusSyncCandidate), args.Error(1)
}

const testNow int64 = 1700000000

func newTestController(store Store) *Controller {
	c := NewController(store, testEngine(), 2)
	c.now = func() int64 { return testNow }
	return c
}

func TestBeginGradingReturnsOriginalStamp(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetAssignment", int64(1)).Return(&models.Assignment{ID: 1, TeamID: 1}, nil)
	store.On("GetGrader", int64(5)).Return(&models.Grader{ID: 5, TeamID: 1, Position: 1}, nil)
	store.On("StartGrading", int64(1), int64(5), testNow).Return(int64(1699990000), false, nil)

	startedAt, created, err := c.BeginGrading(1, 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1699990000), startedAt)
	store.AssertExpectations(t)
}

func TestBeginGradingUnknownAssignment(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetAssignment", int64(99)).Return(nil, nil)

	_, _, err := c.BeginGrading(99, 5)
	assert.True(t, IsNotFound(err))
	store.AssertNotCalled(t, "StartGrading", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitMarksWrongTeam(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetAssignment", int64(1)).Return(&models.Assignment{ID: 1, TeamID: 1, GroupID: 1}, nil)
	store.On("GetGrader", int64(5)).Return(&models.Grader{ID: 5, TeamID: 2, Position: 1}, nil)

	_, err := c.SubmitMarks(1, 5, models.MarkSet{1: 5})
	assert.ErrorIs(t, err, ErrWrongTeam)
	store.AssertNotCalled(t, "SubmitGrade",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitMarksRejectsBadMarkBeforePersisting(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetAssignment", int64(1)).Return(&models.Assignment{ID: 1, TeamID: 1, GroupID: 1}, nil)
	store.On("GetGrader", int64(5)).Return(&models.Grader{ID: 5, TeamID: 1, Position: 1}, nil)
	store.On("GetGroup", int64(1)).Return(testGroup(), nil)

	_, err := c.SubmitMarks(1, 5, models.MarkSet{1: 11})
	assert.True(t, IsValidation(err))
	store.AssertNotCalled(t, "SubmitGrade",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitMarksPassesSessionGraderCount(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	sessionID := int64(4)
	store.On("GetAssignment", int64(1)).Return(
		&models.Assignment{ID: 1, TeamID: 1, GroupID: 1, SessionID: &sessionID}, nil)
	store.On("GetGrader", int64(5)).Return(&models.Grader{ID: 5, TeamID: 1, Position: 3}, nil)
	store.On("GetGroup", int64(1)).Return(testGroup(), nil)
	store.On("GetSession", sessionID).Return(&models.ExamSession{ID: 4, GradersPerRoom: 3}, nil)

	marks := models.MarkSet{1: 9, 2: 8}
	store.On("SubmitGrade", int64(1), int64(5), marks, 3, 3, testNow).Return(
		&models.GradeRecord{AssignmentID: 1, GraderID: 5, Marks: marks}, nil)

	rec, err := c.SubmitMarks(1, 5, marks)
	require.NoError(t, err)
	assert.Equal(t, marks, rec.Marks)
	store.AssertExpectations(t)
}

func TestCreateAssignmentDuplicate(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetStudent", int64(7)).Return(&models.Student{ID: 7, Name: "Yusuf"}, nil)
	store.On("GetTeam", int64(1)).Return(&models.Team{ID: 1, Name: "Room 1"}, nil)
	store.On("GetGroup", int64(2)).Return(testGroup(), nil)
	store.On("FindAssignment", int64(7), (*int64)(nil)).Return(&models.Assignment{ID: 9}, nil)

	_, err := c.CreateAssignment(&models.Assignment{StudentID: 7, TeamID: 1, GroupID: 2})
	assert.ErrorIs(t, err, ErrDuplicateAssignment)
	store.AssertNotCalled(t, "CreateAssignment", mock.Anything)
}

func TestCreateAssignmentCopiesRosterBonus(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	bonus := 7.0
	store.On("GetStudent", int64(7)).Return(&models.Student{ID: 7, Name: "Yusuf", BonusMark: &bonus}, nil)
	store.On("GetTeam", int64(1)).Return(&models.Team{ID: 1, Name: "Room 1"}, nil)
	store.On("GetGroup", int64(2)).Return(testGroup(), nil)
	store.On("FindAssignment", int64(7), (*int64)(nil)).Return(nil, nil)
	store.On("CreateAssignment", mock.Anything).Return(nil)

	created, err := c.CreateAssignment(&models.Assignment{StudentID: 7, TeamID: 1, GroupID: 2})
	require.NoError(t, err)
	require.NotNil(t, created.BonusMark)
	assert.Equal(t, 7.0, *created.BonusMark)
	assert.False(t, created.Completed, "bonus alone never completes an assignment")
}

func TestCreateAssignmentIgnoresOutOfRangeRosterBonus(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	bonus := 12.0
	store.On("GetStudent", int64(7)).Return(&models.Student{ID: 7, Name: "Yusuf", BonusMark: &bonus}, nil)
	store.On("GetTeam", int64(1)).Return(&models.Team{ID: 1, Name: "Room 1"}, nil)
	store.On("GetGroup", int64(2)).Return(testGroup(), nil)
	store.On("FindAssignment", int64(7), (*int64)(nil)).Return(nil, nil)
	store.On("CreateAssignment", mock.Anything).Return(nil)

	created, err := c.CreateAssignment(&models.Assignment{StudentID: 7, TeamID: 1, GroupID: 2})
	require.NoError(t, err)
	assert.Nil(t, created.BonusMark)
}

func TestReassignTeamResetsGradingState(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	store.On("GetAssignment", int64(1)).Return(&models.Assignment{ID: 1, TeamID: 1}, nil)
	store.On("GetTeam", int64(3)).Return(&models.Team{ID: 3, Name: "Room 3"}, nil)
	store.On("ResetAssignmentTeam", int64(1), int64(3), testNow).Return(nil)

	require.NoError(t, c.ReassignTeam(1, 3))
	store.AssertExpectations(t)
}

func TestSetBonusMarkRejectsOutOfRange(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	_, err := c.SetBonusMark(1, 10.5)
	assert.True(t, IsValidation(err))
	store.AssertNotCalled(t, "SetBonusMark",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncBonusFromRoster(t *testing.T) {
	store := new(MockStore)
	c := newTestController(store)

	three := 3
	candidates := []models.BonusSyncCandidate{
		{AssignmentID: 1, RosterBonus: 5},
		{AssignmentID: 2, RosterBonus: 15},                      // out of range, skipped
		{AssignmentID: 3, RosterBonus: 8, GradersPerRoom: &three},
		{AssignmentID: 4, RosterBonus: 6},                       // write fails, logged
	}
	store.On("ListBonusSyncCandidates").Return(candidates, nil)
	store.On("SetBonusMark", int64(1), 5.0, 2, testNow).Return(nil)
	store.On("SetBonusMark", int64(3), 8.0, 3, testNow).Return(nil)
	store.On("SetBonusMark", int64(4), 6.0, 2, testNow).Return(errors.New("boom"))

	synced, err := c.SyncBonusFromRoster()
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	store.AssertNotCalled(t, "SetBonusMark", int64(2), mock.Anything, mock.Anything, mock.Anything)
}
