package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "github.com/servana/action-center/models"
)

var (
	admin      = model.Actor{ID: "admin-1", Name: "Asha"}
	otherAdmin = model.Actor{ID: "admin-2", Name: "Ravi"}
)

// stubRelay fakes the webhook delivery system so redelivery outcomes are
// deterministic in tests.
type stubRelay struct {
	err   error
	calls int
}

func (r *stubRelay) Deliver(*model.ActionItem) error {
	r.calls++
	return r.err
}

// newTestService builds a fresh service against an in-memory database so
// every test starts from an empty store.
func newTestService(t *testing.T) (*ActionCenterService, *stubRelay) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite gives each connection its own database; pin the pool
	// to one connection so all queries see the same store.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.ActionItem{}, &model.ActionNote{}))

	relay := &stubRelay{}
	return NewActionCenterService(db, nil, nil, relay), relay
}

func slaIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func seedItem(t *testing.T, svc *ActionCenterService, queue model.Queue, reason string, sla *time.Time) *model.ActionItem {
	t.Helper()
	item, err := svc.Create(NewItemInput{
		Queue:      queue,
		RefType:    "booking",
		RefID:      "ref-" + reason,
		Title:      "Review " + reason,
		ReasonCode: reason,
		SlaAt:      sla,
	})
	require.NoError(t, err)
	return item
}
