package doctors

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var doctorTestColumns = []string{
	"id", "user_id", "clinic_id", "name", "specialization", "qualification",
	"experience_years", "consultation_fee", "email", "phone", "created_at",
}

func TestRepository_ListDoctors_ByClinic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM doctors WHERE clinic_id = \$1 ORDER BY name, id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(doctorTestColumns).
			AddRow(int64(1), int64(10), int64(3), "Dr. Iyer", "Cardiology", "MD", 12, 800.0, "iyer@example.com", "", now).
			AddRow(int64(2), int64(11), int64(3), "Dr. Mehta", "Dermatology", "MBBS", 5, 500.0, "", "+91-9000000002", now))

	repo := NewRepository(db)
	out, err := repo.ListDoctors(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Dr. Iyer", out[0].Name)
	assert.Equal(t, 800.0, out[0].ConsultationFee)
	assert.Equal(t, 5, out[1].ExperienceYears)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetDoctor_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM doctors WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(doctorTestColumns))

	repo := NewRepository(db)
	_, err = repo.GetDoctor(context.Background(), 99)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestRepository_CreateDoctor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO doctors`).
		WithArgs(int64(10), int64(3), "Dr. Iyer", "Cardiology", "MD", 12, 800.0, "iyer@example.com", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	repo := NewRepository(db)
	d, err := repo.CreateDoctor(context.Background(), CreateDoctorRequest{
		UserID: 10, ClinicID: 3, Name: "Dr. Iyer",
		Specialization: "Cardiology", Qualification: "MD",
		ExperienceYears: 12, ConsultationFee: 800.0,
		Email: "iyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, now, d.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DoctorExistsByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM doctors WHERE user_id = \$1\)`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM doctors WHERE user_id = \$1\)`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewRepository(db)

	exists, err := repo.DoctorExistsByUser(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.DoctorExistsByUser(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_ConsultationFee(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT consultation_fee FROM doctors WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"consultation_fee"}).AddRow(800.0))

	repo := NewRepository(db)
	fee, err := repo.ConsultationFee(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 800.0, fee)
}

func TestRepository_Assistants(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "user_id", "clinic_id", "name", "email", "phone", "created_at"}

	mock.ExpectQuery(`SELECT .+ FROM assistants ORDER BY name, id`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(20), int64(3), "Ravi Kumar", "", "+91-9000000003", now))
	mock.ExpectQuery(`INSERT INTO assistants`).
		WithArgs(int64(21), int64(3), "Meena Pillai", "meena@example.com", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), now))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM assistants WHERE user_id = \$1\)`).
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewRepository(db)

	list, err := repo.ListAssistants(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ravi Kumar", list[0].Name)

	created, err := repo.CreateAssistant(context.Background(), CreateAssistantRequest{
		UserID: 21, ClinicID: 3, Name: "Meena Pillai", Email: "meena@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)

	exists, err := repo.AssistantExistsByUser(context.Background(), 21)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}
