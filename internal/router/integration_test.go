//go:build integration

package router

// Integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"feedesk/internal/config"
	"feedesk/internal/dto"
	"feedesk/internal/infra"
	"feedesk/internal/model"
	"feedesk/internal/repository"
	"feedesk/internal/seed"
	"feedesk/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type pgEnv struct {
	*testEnv
	db     *gorm.DB
	stores repository.Stores
	redisQ *infra.RedisQueue
}

func setupPostgresEnv(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("feedesk_test"),
		tcPostgres.WithUsername("feedesk"),
		tcPostgres.WithPassword("feedesk"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		StoreDriver:        infra.DriverPostgres,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		InstitutionName:    "Vignan College",
		Timezone:           "Asia/Kolkata",
		ReceiptPrefix:      "RCP",
		NotifyMaxRetries:   3,
		WorkerPoolSize:     1,
	}

	db, err := infra.NewDatabase(cfg.StoreDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	stores := repository.NewGormStores(db)
	require.NoError(t, seed.Demo(ctx, stores))

	queue := infra.NewRedisQueue(rdb)
	engine := New(cfg, Deps{
		DB:          db,
		Stores:      stores,
		Queue:       queue,
		Revocations: infra.NewRedisRevocationStore(rdb),
	})
	return &pgEnv{
		testEnv: &testEnv{engine: engine, cfg: cfg},
		db:      db,
		stores:  stores,
		redisQ:  queue,
	}
}

func TestIntegration_ConcurrentReceiptsKeepTotals(t *testing.T) {
	env := setupPostgresEnv(t)
	cashier := env.login(t, "cashier", "cashier123")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/sessions/open", nil, cashier).Code)

	var found []dto.StudentResponse
	decode(t, env.do(t, http.MethodGet, "/v1/collection/students?q=EC2022014", nil, cashier), &found)
	require.Len(t, found, 1)

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := env.do(t, http.MethodPost, "/v1/collection/receipts", map[string]any{
				"student_id": found[0].ID, "amount": 1000, "mode": "Cash",
			}, cashier)
			if assert.Equal(t, http.StatusCreated, w.Code, w.Body.String()) {
				var resp dto.RecordReceiptResponse
				decode(t, w, &resp)
				numbers <- resp.Receipt.ReceiptNo
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for no := range numbers {
		assert.False(t, seen[no], "duplicate receipt number %s", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)

	w := env.do(t, http.MethodPost, "/v1/sessions/close", nil, cashier)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session dto.SessionResponse
	decode(t, w, &session)
	assert.Equal(t, n, session.TotalTransactions)
	assert.True(t, dec("20000").Equal(session.TotalAmount))
	assert.True(t, dec("20000").Equal(session.CashAmount))
	assert.False(t, session.LedgerMismatch)
}

func TestIntegration_SingleOpenSessionIndex(t *testing.T) {
	env := setupPostgresEnv(t)
	ctx := context.Background()

	open := func(date string) error {
		s := model.NewDailySession(date, uuid.New(), "Priya Sharma", time.Now())
		return env.stores.Sessions.Create(ctx, nil, &s)
	}
	require.NoError(t, open("2024-11-04"))
	assert.ErrorIs(t, open("2024-11-05"), repository.ErrDuplicate)
}

func TestIntegration_FeeStructureApplyMatchesCourseText(t *testing.T) {
	env := setupPostgresEnv(t)
	ctx := context.Background()

	cse, err := env.stores.Academic.FindCourseByRef(ctx, "b.tech cse")
	require.NoError(t, err)
	heads, err := env.stores.Academic.ListFeeHeads(ctx, cse.ID, "3rd Year")
	require.NoError(t, err)
	require.NotEmpty(t, heads)

	n, err := env.stores.Students.SetTotalFee(ctx, []string{cse.Code, cse.Name}, "3rd Year", model.FeeTotal(heads).Add(model.FeeTotal(heads)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	h := model.FeeHead{CourseID: cse.ID, Year: "3rd Year", Name: heads[0].Name, Amount: heads[0].Amount}
	assert.ErrorIs(t, env.stores.Academic.CreateFeeHead(ctx, &h), repository.ErrDuplicate)
}

func TestIntegration_ReceiptEmailDeliveredThroughRedis(t *testing.T) {
	env := setupPostgresEnv(t)
	cashier := env.login(t, "cashier", "cashier123")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/sessions/open", nil, cashier).Code)
	var found []dto.StudentResponse
	decode(t, env.do(t, http.MethodGet, "/v1/collection/students?q=CS2021001", nil, cashier), &found)
	require.Len(t, found, 1)
	w := env.do(t, http.MethodPost, "/v1/collection/receipts", map[string]any{
		"student_id": found[0].ID, "amount": 15000, "mode": "Cheque",
	}, cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := &infra.LogMailer{From: "accounts@vignan.edu.in"}
	notifier := worker.NewNotificationWorker(env.stores.Notifications, mailer,
		infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp")), env.redisQ, 3)
	pool := worker.NewPool(env.redisQ, 1)
	pool.Handle(worker.JobReceiptEmail, notifier.Process)
	pool.Start(ctx)

	require.Eventually(t, func() bool { return len(mailer.Messages()) == 1 }, 10*time.Second, 50*time.Millisecond)
	msg := mailer.Messages()[0]
	assert.Equal(t, []string{"verma.family@example.com"}, msg.To)
	assert.Contains(t, msg.Text, "₹15000.00")

	var note model.ReceiptNotification
	require.Eventually(t, func() bool {
		return env.db.First(&note).Error == nil && note.Status == model.NotificationSent
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	pool.Wait()
}
