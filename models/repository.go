package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Backend persists and restores whole snapshots. Load returns ErrNotFound
// when nothing has been saved yet.
type Backend interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

type patientRow struct {
	ID                string `gorm:"primaryKey"`
	Position          int    `gorm:"not null;index"`
	Name              string `gorm:"not null"`
	Phone             string `gorm:"not null;index"`
	Address           string
	Age               int
	BloodType         string
	Allergies         string
	ChronicDiseases   string
	PreviousSurgeries string
	FamilyHistory     string
	Notes             string
	RegistrationDate  time.Time
	LastVisit         *time.Time
}

func (patientRow) TableName() string { return "patients" }

type appointmentRow struct {
	ID              string    `gorm:"primaryKey"`
	Position        int       `gorm:"not null;index"`
	PatientID       string    `gorm:"not null;index"`
	AppointmentDate time.Time `gorm:"index"`
	VisitKind       string
	BookingKind     string
	Status          string `gorm:"not null"`
	Notes           string
	ReminderSent    bool
	CreatedAt       time.Time
}

func (appointmentRow) TableName() string { return "appointments" }

type followUpRow struct {
	ID                string `gorm:"primaryKey"`
	Position          int    `gorm:"not null;index"`
	PatientID         string `gorm:"not null;index"`
	Type              string `gorm:"not null"`
	PregnancyWeek     string
	FetusMeasurements string
	CycleDay          string
	FollicleSize      string
	DoctorNotes       string
	Prescription      string
	NextVisit         string
	CreatedAt         time.Time
}

func (followUpRow) TableName() string { return "follow_ups" }

type paymentRow struct {
	ID            string `gorm:"primaryKey"`
	Position      int    `gorm:"not null;index"`
	PatientID     string `gorm:"index"`
	AppointmentID string `gorm:"index"`
	Amount        float64
	Description   string
	Date          time.Time `gorm:"index"`
}

func (paymentRow) TableName() string { return "payments" }

type userRow struct {
	Role     string `gorm:"primaryKey"`
	Username string `gorm:"not null"`
	Password string `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type settingsRow struct {
	ID         int `gorm:"primaryKey;autoIncrement:false"`
	Name       string
	DoctorName string
	Address    string
	Phone      string
}

func (settingsRow) TableName() string { return "clinic_settings" }

// PostgresRepository stores the snapshot in one table per collection and
// rewrites all of them inside a single transaction on every save.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&patientRow{}, &appointmentRow{}, &followUpRow{}, &paymentRow{}, &userRow{}, &settingsRow{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryWithDB wraps an already opened connection without
// migrating it.
func NewPostgresRepositoryWithDB(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Name() string { return "postgres" }

func (r *PostgresRepository) Load(ctx context.Context) (*Snapshot, error) {
	db := r.db.WithContext(ctx)

	var settings settingsRow
	if err := db.First(&settings, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load clinic settings: %w", err)
	}

	var (
		users        []userRow
		patients     []patientRow
		appointments []appointmentRow
		followUps    []followUpRow
		payments     []paymentRow
	)
	if err := db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := db.Order("position").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	if err := db.Order("position").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	if err := db.Order("position").Find(&followUps).Error; err != nil {
		return nil, fmt.Errorf("failed to load follow-ups: %w", err)
	}
	if err := db.Order("position").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	snapshot := &Snapshot{
		Patients:     make([]Patient, 0, len(patients)),
		Appointments: make([]Appointment, 0, len(appointments)),
		FollowUps:    make([]FollowUp, 0, len(followUps)),
		Payments:     make([]Payment, 0, len(payments)),
		ClinicSettings: ClinicSettings{
			Name:       settings.Name,
			DoctorName: settings.DoctorName,
			Address:    settings.Address,
			Phone:      settings.Phone,
		},
	}
	for _, u := range users {
		switch Role(u.Role) {
		case RoleDoctor:
			snapshot.Users.Doctor = Credentials{Username: u.Username, Password: u.Password}
		case RoleSecretary:
			snapshot.Users.Secretary = Credentials{Username: u.Username, Password: u.Password}
		}
	}
	for _, p := range patients {
		snapshot.Patients = append(snapshot.Patients, Patient{
			ID:                p.ID,
			Name:              p.Name,
			Phone:             p.Phone,
			Address:           p.Address,
			Age:               p.Age,
			BloodType:         p.BloodType,
			Allergies:         p.Allergies,
			ChronicDiseases:   p.ChronicDiseases,
			PreviousSurgeries: p.PreviousSurgeries,
			FamilyHistory:     p.FamilyHistory,
			Notes:             p.Notes,
			RegistrationDate:  p.RegistrationDate,
			LastVisit:         p.LastVisit,
		})
	}
	for _, a := range appointments {
		snapshot.Appointments = append(snapshot.Appointments, Appointment{
			ID:              a.ID,
			PatientID:       a.PatientID,
			AppointmentDate: a.AppointmentDate,
			VisitKind:       VisitKind(a.VisitKind),
			BookingKind:     BookingKind(a.BookingKind),
			Status:          AppointmentStatus(a.Status),
			Notes:           a.Notes,
			ReminderSent:    a.ReminderSent,
			CreatedAt:       a.CreatedAt,
		})
	}
	for _, f := range followUps {
		snapshot.FollowUps = append(snapshot.FollowUps, FollowUp{
			ID:                f.ID,
			PatientID:         f.PatientID,
			Type:              FollowUpType(f.Type),
			PregnancyWeek:     f.PregnancyWeek,
			FetusMeasurements: f.FetusMeasurements,
			CycleDay:          f.CycleDay,
			FollicleSize:      f.FollicleSize,
			DoctorNotes:       f.DoctorNotes,
			Prescription:      f.Prescription,
			NextVisit:         f.NextVisit,
			CreatedAt:         f.CreatedAt,
		})
	}
	for _, p := range payments {
		snapshot.Payments = append(snapshot.Payments, Payment{
			ID:            p.ID,
			PatientID:     p.PatientID,
			AppointmentID: p.AppointmentID,
			Amount:        p.Amount,
			Description:   p.Description,
			Date:          p.Date,
		})
	}
	snapshot.normalize()

	return snapshot, nil
}

func (r *PostgresRepository) Save(ctx context.Context, snapshot *Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{&patientRow{}, &appointmentRow{}, &followUpRow{}, &paymentRow{}, &userRow{}, &settingsRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", table, err)
			}
		}

		if len(snapshot.Patients) > 0 {
			rows := make([]patientRow, len(snapshot.Patients))
			for i, p := range snapshot.Patients {
				rows[i] = patientRow{
					ID:                p.ID,
					Position:          i,
					Name:              p.Name,
					Phone:             p.Phone,
					Address:           p.Address,
					Age:               p.Age,
					BloodType:         p.BloodType,
					Allergies:         p.Allergies,
					ChronicDiseases:   p.ChronicDiseases,
					PreviousSurgeries: p.PreviousSurgeries,
					FamilyHistory:     p.FamilyHistory,
					Notes:             p.Notes,
					RegistrationDate:  p.RegistrationDate,
					LastVisit:         p.LastVisit,
				}
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("failed to save patients: %w", err)
			}
		}

		if len(snapshot.Appointments) > 0 {
			rows := make([]appointmentRow, len(snapshot.Appointments))
			for i, a := range snapshot.Appointments {
				rows[i] = appointmentRow{
					ID:              a.ID,
					Position:        i,
					PatientID:       a.PatientID,
					AppointmentDate: a.AppointmentDate,
					VisitKind:       string(a.VisitKind),
					BookingKind:     string(a.BookingKind),
					Status:          string(a.Status),
					Notes:           a.Notes,
					ReminderSent:    a.ReminderSent,
					CreatedAt:       a.CreatedAt,
				}
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("failed to save appointments: %w", err)
			}
		}

		if len(snapshot.FollowUps) > 0 {
			rows := make([]followUpRow, len(snapshot.FollowUps))
			for i, f := range snapshot.FollowUps {
				rows[i] = followUpRow{
					ID:                f.ID,
					Position:          i,
					PatientID:         f.PatientID,
					Type:              string(f.Type),
					PregnancyWeek:     f.PregnancyWeek,
					FetusMeasurements: f.FetusMeasurements,
					CycleDay:          f.CycleDay,
					FollicleSize:      f.FollicleSize,
					DoctorNotes:       f.DoctorNotes,
					Prescription:      f.Prescription,
					NextVisit:         f.NextVisit,
					CreatedAt:         f.CreatedAt,
				}
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("failed to save follow-ups: %w", err)
			}
		}

		if len(snapshot.Payments) > 0 {
			rows := make([]paymentRow, len(snapshot.Payments))
			for i, p := range snapshot.Payments {
				rows[i] = paymentRow{
					ID:            p.ID,
					Position:      i,
					PatientID:     p.PatientID,
					AppointmentID: p.AppointmentID,
					Amount:        p.Amount,
					Description:   p.Description,
					Date:          p.Date,
				}
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("failed to save payments: %w", err)
			}
		}

		users := []userRow{
			{Role: string(RoleDoctor), Username: snapshot.Users.Doctor.Username, Password: snapshot.Users.Doctor.Password},
			{Role: string(RoleSecretary), Username: snapshot.Users.Secretary.Username, Password: snapshot.Users.Secretary.Password},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("failed to save users: %w", err)
		}

		settings := settingsRow{
			ID:         1,
			Name:       snapshot.ClinicSettings.Name,
			DoctorName: snapshot.ClinicSettings.DoctorName,
			Address:    snapshot.ClinicSettings.Address,
			Phone:      snapshot.ClinicSettings.Phone,
		}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to save clinic settings: %w", err)
		}

		return nil
	})
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
