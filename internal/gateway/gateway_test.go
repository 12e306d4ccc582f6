package gateway

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockGateway(t *testing.T, opts ...Option) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, opts...), mock
}

// outputArg matches an OUTPUT parameter and plays the database's part by
// writing the post-execution value into its destination.
type outputArg struct {
	value *int32
}

func (a outputArg) Match(v driver.Value) bool {
	out, ok := v.(sql.Out)
	if !ok {
		return false
	}
	dest, ok := out.Dest.(*sql.NullInt32)
	if !ok {
		return false
	}
	if a.value != nil {
		*dest = sql.NullInt32{Int32: *a.value, Valid: true}
	}
	return true
}

func returns(v int32) outputArg { return outputArg{value: &v} }

func compactJSON(t *testing.T, b []byte) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, b))
	return buf.String()
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}

type wireEnvelope struct {
	Success          bool              `json:"success"`
	Data             []json.RawMessage `json:"data"`
	OutputParameters map[string]any    `json:"outputParameters"`
	Error            *string           `json:"error"`
}

func decodeEnvelope(t *testing.T, b []byte) (wireEnvelope, map[string]json.RawMessage) {
	t.Helper()
	var env wireEnvelope
	require.NoError(t, json.Unmarshal(b, &env))
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	return env, raw
}

func TestInvoke_CreatePropertyReturnsOutputID(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("pm.sp_CreateProperty").
		WithArgs(
			sql.Named("BuildingNo", "12"),
			sql.Named("UnitNumber", "4A"),
			returns(57),
		).
		WillReturnRows(mock.NewRowsWithColumnDefinition())

	res, err := gw.Invoke(context.Background(), "pm.sp_CreateProperty", Bind(
		P("BuildingNo", String("12")),
		P("UnitNumber", String("4A")),
		P("NewPropertyId", Null()),
	))
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	id, ok := res.Outputs.Get("PropertyId")
	require.True(t, ok)
	got, isInt := id.Int64()
	require.True(t, isInt)
	assert.Equal(t, int64(57), got)

	body := NewEnvelope(res, err).Marshal()
	assert.Equal(t, `{"success":true,"data":[],"outputParameters":{"PropertyId":57}}`, compactJSON(t, body))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoke_OutputIgnoresSuppliedValue(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("pm.sp_AddTenant").
		WithArgs(sql.Named("TenancyId", int64(3)), returns(12)).
		WillReturnRows(mock.NewRowsWithColumnDefinition())

	res, err := gw.Invoke(context.Background(), "pm.sp_AddTenant", Bind(
		P("TenancyId", Int(3)),
		P("NewTenantId", Int(999)),
	))
	require.NoError(t, err)

	v, ok := res.Outputs.Get("TenantId")
	require.True(t, ok)
	assert.True(t, v.Equal(Int(12)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoke_NullOutputAndSigil(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("pm.sp_AddRent").
		WithArgs(sql.Named("PropertyId", int64(1)), outputArg{}).
		WillReturnRows(mock.NewRowsWithColumnDefinition())

	res, err := gw.Invoke(context.Background(), "pm.sp_AddRent", Bind(
		P("@PropertyId", Int(1)),
		P("@NewRentId", Null()),
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"RentId"}, res.Outputs.Names())
	v, _ := res.Outputs.Get("RentId")
	assert.True(t, v.IsNull())

	_, raw := decodeEnvelope(t, NewEnvelope(res, nil).Marshal())
	assert.JSONEq(t, `{"RentId":null}`, string(raw["outputParameters"]))
}

func TestInvoke_SigilDuplicateBindsOnce(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("pm.sp_UpdateTenant").
		WithArgs(sql.Named("TenantId", int64(4)), sql.Named("Email", "b@example.com")).
		WillReturnRows(mock.NewRowsWithColumnDefinition())

	_, err := gw.Invoke(context.Background(), "pm.sp_UpdateTenant", Bind(
		P("@TenantId", Int(4)),
		P("@Email", String("a@example.com")),
		P("Email", String("b@example.com")),
	))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoke_NoOutputsMeansNullOutputParameters(t *testing.T) {
	gw, mock := newMockGateway(t)

	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("property_id").OfType("INT", int64(0)),
		mock.NewColumn("city_name").OfType("NVARCHAR", ""),
	).AddRow(int64(1), "Vancouver")

	mock.ExpectQuery("pm.sp_GetAllProperties").
		WithArgs(sql.Named("CityName", "Vancouver"), sql.Named("Status", nil)).
		WillReturnRows(rows)

	res, err := gw.Invoke(context.Background(), "pm.sp_GetAllProperties", Bind(
		P("CityName", String("Vancouver")),
		P("Status", Null()),
	))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Outputs.Len())

	env, raw := decodeEnvelope(t, NewEnvelope(res, nil).Marshal())
	assert.True(t, env.Success)
	assert.Len(t, env.Data, 1)
	assert.Equal(t, "null", string(raw["outputParameters"]))
	_, hasError := raw["error"]
	assert.False(t, hasError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoke_ExecutionFailure(t *testing.T) {
	gw, mock := newMockGateway(t)

	cause := errors.New("Procedure or function 'sp_UpdateTenant' expects parameter '@TenantId', which was not supplied.")
	mock.ExpectQuery("pm.sp_UpdateTenant").WillReturnError(cause)

	res, err := gw.Invoke(context.Background(), "pm.sp_UpdateTenant", Binding{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Error())
	assert.Equal(t, ErrExecution, KindOf(err))
	assert.Nil(t, res.Rows)

	env, raw := decodeEnvelope(t, NewEnvelope(res, err).Marshal())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, cause.Error(), *env.Error)
	assert.Equal(t, "null", string(raw["data"]))
	assert.Equal(t, "null", string(raw["outputParameters"]))
}

func TestInvoke_RowErrorYieldsNoPartialRows(t *testing.T) {
	gw, mock := newMockGateway(t)

	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("rent_id").OfType("INT", int64(0)),
	).
		AddRow(int64(1)).
		AddRow(int64(2)).
		RowError(1, errors.New("Arithmetic overflow error converting expression to data type int."))

	mock.ExpectQuery("pm.sp_GetRentHistory").
		WithArgs(sql.Named("PropertyId", int64(4))).
		WillReturnRows(rows)

	res, err := gw.Invoke(context.Background(), "pm.sp_GetRentHistory", Bind(P("PropertyId", Int(4))))
	require.Error(t, err)
	assert.Nil(t, res.Rows)
	assert.Equal(t, ErrExecution, KindOf(err))
	assert.Contains(t, err.Error(), "Arithmetic overflow")
}

func TestInvoke_MaterializationFailure(t *testing.T) {
	gw, mock := newMockGateway(t)

	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("rent_amount").OfType("DECIMAL", []byte{}),
	).AddRow([]byte("not-a-number"))

	mock.ExpectQuery("pm.sp_GetRentHistory").
		WithArgs(sql.Named("PropertyId", int64(4))).
		WillReturnRows(rows)

	_, err := gw.Invoke(context.Background(), "pm.sp_GetRentHistory", Bind(P("PropertyId", Int(4))))
	require.Error(t, err)
	assert.Equal(t, ErrMaterialization, KindOf(err))
}

func TestInvoke_ConnectionFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	_ = db.Close()

	_, err = New(db).Invoke(context.Background(), "pm.sp_GetAllProperties", Binding{})
	require.Error(t, err)
	assert.Equal(t, ErrConnection, KindOf(err))
	assert.NotEmpty(t, err.Error())
}

func TestInvoke_RequiresProcedureName(t *testing.T) {
	gw, mock := newMockGateway(t)

	_, err := gw.Invoke(context.Background(), "   ", Binding{})
	require.ErrorIs(t, err, ErrProcedureRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoke_OnlyFirstResultSet(t *testing.T) {
	gw, mock := newMockGateway(t)

	first := mock.NewRowsWithColumnDefinition(mock.NewColumn("a").OfType("INT", int64(0))).AddRow(int64(1))
	second := mock.NewRowsWithColumnDefinition(mock.NewColumn("b").OfType("INT", int64(0))).AddRow(int64(2)).AddRow(int64(3))

	mock.ExpectQuery("pm.sp_Multi").WillReturnRows(first, second)

	res, err := gw.Invoke(context.Background(), "pm.sp_Multi", Binding{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"a"}, res.Rows[0].Names())
}

func TestInvoke_DeadlineAbortsCall(t *testing.T) {
	gw, mock := newMockGateway(t, WithTimeout(20*time.Millisecond))

	mock.ExpectQuery("pm.sp_GetExpiringLeases").
		WithArgs(sql.Named("DaysAhead", int64(90))).
		WillDelayFor(time.Second).
		WillReturnRows(mock.NewRowsWithColumnDefinition())

	start := time.Now()
	res, err := gw.Invoke(context.Background(), "pm.sp_GetExpiringLeases", Bind(P("DaysAhead", Int(90))))
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	env := NewEnvelope(res, err)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestExecute_OpenIssuesScenario(t *testing.T) {
	gw, mock := newMockGateway(t)

	const q = "SELECT * FROM pm.vw_OpenIssues ORDER BY issue_type, issue_id DESC"
	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("issue_type").OfType("NVARCHAR", ""),
		mock.NewColumn("issue_id").OfType("INT", int64(0)),
		mock.NewColumn("description").OfType("NVARCHAR", "").Nullable(true),
	).
		AddRow("Inspection", int64(9), "Smoke alarm").
		AddRow("Maintenance", int64(4), nil)

	mock.ExpectQuery(q).WillReturnRows(rows)

	res, err := gw.Execute(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Outputs.Len())

	env, raw := decodeEnvelope(t, NewEnvelope(res, nil).Marshal())
	require.Len(t, env.Data, 2)
	for _, obj := range env.Data {
		assert.Equal(t, []string{"issue_type", "issue_id", "description"}, objectKeys(t, obj))
	}
	assert.JSONEq(t, `{"issue_type":"Maintenance","issue_id":4,"description":null}`, string(env.Data[1]))
	assert.Equal(t, "null", string(raw["outputParameters"]))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RoundTripShape(t *testing.T) {
	gw, mock := newMockGateway(t)

	const q = "SELECT * FROM pm.vw_PropertyDashboard ORDER BY building_no, unit_number"
	cols := []string{"unit_number", "building_no", "rent"}
	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn(cols[0]).OfType("NVARCHAR", ""),
		mock.NewColumn(cols[1]).OfType("NVARCHAR", ""),
		mock.NewColumn(cols[2]).OfType("MONEY", []byte{}).Nullable(true),
	)
	const n = 4
	for i := 0; i < n; i++ {
		var rent any = []byte("1850.0000")
		if i%2 == 1 {
			rent = nil
		}
		rows.AddRow("4A", "12", rent)
	}
	mock.ExpectQuery(q).WillReturnRows(rows)

	res, err := gw.Execute(context.Background(), q)
	require.NoError(t, err)

	env, _ := decodeEnvelope(t, NewEnvelope(res, nil).Marshal())
	require.Len(t, env.Data, n)
	for i, obj := range env.Data {
		assert.Equal(t, cols, objectKeys(t, obj))
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(obj, &m))
		if i%2 == 1 {
			assert.Equal(t, "null", string(m["rent"]))
		} else {
			assert.Equal(t, "1850.0000", string(m["rent"]))
		}
	}
}

func TestExecute_ReadPathIsRepeatable(t *testing.T) {
	gw, mock := newMockGateway(t)

	const q = "SELECT * FROM pm.vw_UpcomingEvents ORDER BY event_date ASC"
	when := time.Date(2026, 11, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		rows := mock.NewRowsWithColumnDefinition(
			mock.NewColumn("event_date").OfType("DATETIME", time.Time{}),
			mock.NewColumn("event_type").OfType("NVARCHAR", ""),
		).AddRow(when, "Lease expiry")
		mock.ExpectQuery(q).WillReturnRows(rows)
	}

	first, err := gw.Execute(context.Background(), q)
	require.NoError(t, err)
	second, err := gw.Execute(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t,
		string(NewEnvelope(first, nil).Marshal()),
		string(NewEnvelope(second, nil).Marshal()))
	v, _ := first.Rows[0].Get("event_date")
	assert.Equal(t, KindLocalTime, v.Kind())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_RequiresText(t *testing.T) {
	gw, _ := newMockGateway(t)
	_, err := gw.Execute(context.Background(), "")
	require.ErrorIs(t, err, ErrQueryRequired)
}

func TestNew_NilDB(t *testing.T) {
	_, err := New(nil).Execute(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ErrConnection, KindOf(err))
}
