package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/exdb-api/internal/database"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrInt(v int) *int {
	return &v
}

func ptrTime(v time.Time) *time.Time {
	return &v
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// workflowFixture wires the experience services over a seeded sqlite database.
type workflowFixture struct {
	db          *gorm.DB
	now         time.Time
	experiences repository.ExperienceRepository
	users       repository.UserRepository
	references  repository.ReferenceRepository
	activity    ActivityService
	service     *experienceService
	approvals   *approvalService

	author     models.User
	planner    models.User
	staff      models.User
	otherStaff models.User

	eventType  models.Type
	verified   models.Subtype
	unverified models.Subtype
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	db := openTestDB(t)
	f := &workflowFixture{
		db:          db,
		now:         time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC),
		experiences: repository.NewExperienceRepository(db),
		users:       repository.NewUserRepository(db),
		references:  repository.NewReferenceRepository(db),
	}

	f.author = seedUser(t, db, "author", models.UserRoleRequester)
	f.planner = seedUser(t, db, "planner", models.UserRoleRequester)
	f.staff = seedUser(t, db, "staff", models.UserRoleHallstaff)
	f.otherStaff = seedUser(t, db, "otherstaff", models.UserRoleHallstaff)

	f.verified = models.Subtype{Name: "Hall Program", NeedsVerification: true}
	require.NoError(t, db.Create(&f.verified).Error)
	f.unverified = models.Subtype{Name: "Floor Meeting", NeedsVerification: false}
	require.NoError(t, db.Create(&f.unverified).Error)

	f.eventType = models.Type{Name: "Social", ValidSubtypes: []models.Subtype{f.verified, f.unverified}}
	require.NoError(t, db.Create(&f.eventType).Error)

	f.activity = NewActivityService(repository.NewActivityLogRepository(db), testLogger())
	validate := validator.New(validator.WithRequiredStructEnabled())
	events := NewEventPublisher(nil, "exdb", testLogger())

	f.service = NewExperienceService(f.experiences, f.users, f.references, validate, f.activity, events, nil, testLogger()).(*experienceService)
	f.service.now = func() time.Time { return f.now }
	f.approvals = NewApprovalService(f.experiences, f.users, validate, f.activity, events, nil, testLogger()).(*approvalService)
	f.approvals.now = func() time.Time { return f.now }

	return f
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		Username:  username,
		FirstName: strings.ToUpper(username[:1]) + username[1:],
		LastName:  "Tester",
		Email:     username + "@example.edu",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func actorOf(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role, Superuser: user.IsSuperuser}
}
