package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/testsupport"
	"github.com/stretchr/testify/require"
)

// connectMySQL starts throwaway MySQL and Redis containers and points the
// global handles at them.
func connectMySQL(t *testing.T) {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startContainer(t, "redis", "6379/tcp",
		[]string{"redis:7-alpine"},
		[]string{"redis-cli", "ping"})
	mysqlName, mysqlPort := startContainer(t, "mysql", "3306/tcp",
		[]string{"-e", "MYSQL_ROOT_PASSWORD=testpw", "-e", "MYSQL_DATABASE=dashboard_test", "mysql:8.0"},
		[]string{"mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"})
	t.Cleanup(func() {
		_, _ = dockerRun("rm", "-f", redisName)
		_, _ = dockerRun("rm", "-f", mysqlName)
	})

	t.Setenv("REDIS_ADDRESS", "127.0.0.1:"+redisPort)
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "dashboard_test")

	previousDB, previousRedis := config.GetDB(), config.GetRedisDB()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	t.Cleanup(func() {
		if sqlDB, err := config.GetDB().DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = config.GetRedisDB().Close()
		config.SetDB(previousDB)
		config.SetRedisDB(previousRedis)
	})

	require.NoError(t, models.MigrateTable(context.Background()))
}

func TestMySQLDuplicateSlotIsValidationError(t *testing.T) {
	connectMySQL(t)
	ctx := context.Background()

	_, err := models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "12345678"})
	require.NoError(t, err)

	_, err = models.CreateStorageSlot(ctx, &models.StorageSlotInput{WarehouseId: "12345678"})
	require.EqualError(t, err, "Lager-ID existiert bereits")
}

func TestMySQLConcurrentRestocksGetDistinctDeliveries(t *testing.T) {
	connectMySQL(t)
	boss := testsupport.CreateMember(t, "boss", "secret", testsupport.WithRank(models.RankBoss))
	ctx := testsupport.ActorContext(boss)

	const workers = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := models.RestockHero(ctx, 10)
			if err != nil {
				t.Errorf("restock: %v", err)
				return
			}
			mu.Lock()
			numbers = append(numbers, result.DeliveryNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(numbers)
	require.Equal(t, []int{1, 2, 3, 4, 5}, numbers)

	inventory, err := models.GetHeroInventory(ctx)
	require.NoError(t, err)
	require.Equal(t, workers*10, inventory.Quantity)
}

func startContainer(t *testing.T, kind string, port string, runArgs []string, ready []string) (string, string) {
	t.Helper()
	name := fmt.Sprintf("dashboard-test-%s-%d", kind, time.Now().UnixNano())
	args := append([]string{"run", "-d", "--name", name, "-p", "127.0.0.1:0:" + strings.TrimSuffix(port, "/tcp")}, runArgs...)
	if out, err := dockerRun(args...); err != nil {
		t.Fatalf("start %s container: %v\n%s", kind, err, out)
	}
	out, err := dockerRun("port", name, port)
	if err != nil {
		t.Fatalf("%s docker port: %v\n%s", kind, err, out)
	}
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		t.Fatalf("unexpected docker port output: %q", out)
	}

	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun(append([]string{"exec", name}, ready...)...); err == nil {
			return name, m[1]
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("%s did not become ready", kind)
	return "", ""
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
