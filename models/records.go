package models

import "time"

type Role string

const (
	RoleDoctor    Role = "doctor"
	RoleSecretary Role = "secretary"
)

type VisitKind string

const (
	VisitNew      VisitKind = "new"
	VisitFollowUp VisitKind = "followUp"
)

type BookingKind string

const (
	BookingPhone  BookingKind = "phone"
	BookingClinic BookingKind = "clinic"
)

type AppointmentStatus string

const (
	StatusUnconfirmed AppointmentStatus = "unconfirmed"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCancelled   AppointmentStatus = "cancelled"
)

type FollowUpType string

const (
	FollowUpPregnancy FollowUpType = "pregnancy"
	FollowUpOvulation FollowUpType = "ovulation"
	FollowUpDelivery  FollowUpType = "delivery"
)

// Patient is keyed by phone number for de-duplication.
type Patient struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Address           string     `json:"address"`
	Age               int        `json:"age,omitempty"`
	BloodType         string     `json:"bloodType,omitempty"`
	Allergies         string     `json:"allergies,omitempty"`
	ChronicDiseases   string     `json:"chronicDiseases,omitempty"`
	PreviousSurgeries string     `json:"previousSurgeries,omitempty"`
	FamilyHistory     string     `json:"familyHistory,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	RegistrationDate  time.Time  `json:"registrationDate"`
	LastVisit         *time.Time `json:"lastVisit"`
}

// Copy returns p with its own LastVisit.
func (p Patient) Copy() Patient {
	if p.LastVisit != nil {
		lastVisit := *p.LastVisit
		p.LastVisit = &lastVisit
	}
	return p
}

// PatientUpdate carries the fields to merge over an existing patient. Nil
// fields are left untouched.
type PatientUpdate struct {
	Name              *string    `json:"name"`
	Phone             *string    `json:"phone"`
	Address           *string    `json:"address"`
	Age               *int       `json:"age"`
	BloodType         *string    `json:"bloodType"`
	Allergies         *string    `json:"allergies"`
	ChronicDiseases   *string    `json:"chronicDiseases"`
	PreviousSurgeries *string    `json:"previousSurgeries"`
	FamilyHistory     *string    `json:"familyHistory"`
	Notes             *string    `json:"notes"`
	LastVisit         *time.Time `json:"lastVisit"`
}

func (u PatientUpdate) Apply(p *Patient) {
	setString(&p.Name, u.Name)
	setString(&p.Phone, u.Phone)
	setString(&p.Address, u.Address)
	if u.Age != nil {
		p.Age = *u.Age
	}
	setString(&p.BloodType, u.BloodType)
	setString(&p.Allergies, u.Allergies)
	setString(&p.ChronicDiseases, u.ChronicDiseases)
	setString(&p.PreviousSurgeries, u.PreviousSurgeries)
	setString(&p.FamilyHistory, u.FamilyHistory)
	setString(&p.Notes, u.Notes)
	if u.LastVisit != nil {
		lastVisit := *u.LastVisit
		p.LastVisit = &lastVisit
	}
}

type Appointment struct {
	ID              string            `json:"id"`
	PatientID       string            `json:"patientId"`
	AppointmentDate time.Time         `json:"appointmentDate"`
	VisitKind       VisitKind         `json:"type"`
	BookingKind     BookingKind       `json:"bookingType"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	ReminderSent    bool              `json:"reminderSent"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type AppointmentUpdate struct {
	AppointmentDate *time.Time         `json:"appointmentDate"`
	VisitKind       *VisitKind         `json:"type"`
	BookingKind     *BookingKind       `json:"bookingType"`
	Status          *AppointmentStatus `json:"status"`
	Notes           *string            `json:"notes"`
	ReminderSent    *bool              `json:"reminderSent"`
}

func (u AppointmentUpdate) Apply(a *Appointment) {
	if u.AppointmentDate != nil {
		a.AppointmentDate = *u.AppointmentDate
	}
	if u.VisitKind != nil {
		a.VisitKind = *u.VisitKind
	}
	if u.BookingKind != nil {
		a.BookingKind = *u.BookingKind
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	setString(&a.Notes, u.Notes)
	if u.ReminderSent != nil {
		a.ReminderSent = *u.ReminderSent
	}
}

// FollowUp is a clinical note. Pregnancy notes fill PregnancyWeek and
// FetusMeasurements, ovulation notes fill CycleDay and FollicleSize.
type FollowUp struct {
	ID                string       `json:"id"`
	PatientID         string       `json:"patientId"`
	Type              FollowUpType `json:"type"`
	PregnancyWeek     string       `json:"pregnancyWeek,omitempty"`
	FetusMeasurements string       `json:"fetusMeasurements,omitempty"`
	CycleDay          string       `json:"cycleDay,omitempty"`
	FollicleSize      string       `json:"follicleSize,omitempty"`
	DoctorNotes       string       `json:"doctorNotes"`
	Prescription      string       `json:"prescription"`
	NextVisit         string       `json:"nextVisit"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type Payment struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patientId"`
	AppointmentID string    `json:"appointmentId"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
}

type ClinicSettings struct {
	Name       string `json:"name"`
	DoctorName string `json:"doctorName"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Users struct {
	Doctor    Credentials `json:"doctor"`
	Secretary Credentials `json:"secretary"`
}

// For returns the credential pair stored for role.
func (u Users) For(role Role) (Credentials, bool) {
	switch role {
	case RoleDoctor:
		return u.Doctor, true
	case RoleSecretary:
		return u.Secretary, true
	default:
		return Credentials{}, false
	}
}

func (u *Users) SetPassword(role Role, password string) bool {
	switch role {
	case RoleDoctor:
		u.Doctor.Password = password
	case RoleSecretary:
		u.Secretary.Password = password
	default:
		return false
	}
	return true
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
