package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/model"
)

func newRedisProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisProvider(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	assert.Equal(t, "F", defaults["ATTENDANCE_NAME_COLUMN"])
	assert.Equal(t, "M", defaults["ATTENDANCE_WORK_DURATION_COLUMN"])
	assert.Equal(t, "A", defaults["SALARY_NAME_COLUMN"])
	assert.Equal(t, "G", defaults["SALARY_DAYS_COLUMN"])
	assert.Equal(t, "", defaults["SALARY_AMOUNT_COLUMN"])
	assert.Len(t, Keys(), 14)
}

func TestRedisProviderRoundTrip(t *testing.T) {
	p, mr := newRedisProvider(t)
	ctx := context.Background()

	v, err := p.Get(ctx, "ATTENDANCE_NAME_COLUMN")
	require.NoError(t, err)
	assert.Equal(t, "F", v)

	require.NoError(t, p.Set(ctx, map[string]string{
		"ATTENDANCE_NAME_COLUMN": " c ",
		"SALARY_AMOUNT_COLUMN":   "h",
	}))
	assert.Equal(t, "C", mr.HGet(HashKey, "ATTENDANCE_NAME_COLUMN"))

	all, err := p.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C", all["ATTENDANCE_NAME_COLUMN"])
	assert.Equal(t, "H", all["SALARY_AMOUNT_COLUMN"])
	assert.Equal(t, "B", all["ATTENDANCE_PHONE_COLUMN"])

	// blank resets to default
	require.NoError(t, p.Set(ctx, map[string]string{"ATTENDANCE_NAME_COLUMN": ""}))
	v, err = p.Get(ctx, "ATTENDANCE_NAME_COLUMN")
	require.NoError(t, err)
	assert.Equal(t, "F", v)

	require.NoError(t, p.Reset(ctx))
	assert.False(t, mr.Exists(HashKey))
}

func TestRedisProviderRejectsBadUpdates(t *testing.T) {
	p, mr := newRedisProvider(t)
	ctx := context.Background()

	err := p.Set(ctx, map[string]string{"WALLET_KEY": "A"})
	assert.True(t, errors.Is(err, ErrUnknownKey))

	err = p.Set(ctx, map[string]string{"SALARY_PF_COLUMN": "E1"})
	assert.Error(t, err)

	assert.False(t, mr.Exists(HashKey))

	_, err = p.Get(ctx, "WALLET_KEY")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestRedisProviderSurfacesRedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewRedisProvider(db)

	mock.ExpectHGetAll(HashKey).SetErr(errors.New("connection reset"))
	_, err := p.All(context.Background())
	assert.EqualError(t, err, "connection reset")

	mock.ExpectHGet(HashKey, "SALARY_PF_COLUMN").RedisNil()
	v, err := p.Get(context.Background(), "SALARY_PF_COLUMN")
	require.NoError(t, err)
	assert.Equal(t, "E", v)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapping(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	require.NoError(t, p.Set(ctx, map[string]string{"ATTENDANCE_PHONE_COLUMN": "Z"}))

	mapping, err := Mapping(ctx, p, model.RecordTypeAttendance)
	require.NoError(t, err)
	assert.Equal(t, "Z", mapping[model.FieldPhone])
	assert.Equal(t, "F", mapping[model.FieldName])
	assert.Len(t, mapping, 6)

	salary, err := Mapping(ctx, p, model.RecordTypeSalary)
	require.NoError(t, err)
	_, hasAmount := salary[model.FieldAmount]
	assert.False(t, hasAmount)
}

func TestViewRoundTrip(t *testing.T) {
	view := View(Defaults(), model.RecordTypeSalary)
	assert.Equal(t, "D", view["grossSalaryColumn"])
	assert.Equal(t, "", view["amountColumn"])

	keys := FromView(model.RecordTypeSalary, map[string]string{"pfColumn": "K", "bogus": "A"})
	assert.Equal(t, map[string]string{"SALARY_PF_COLUMN": "K"}, keys)
}
