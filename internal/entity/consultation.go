package entity

import "time"

const (
	ConsultationSearching  = "searching"
	ConsultationInProgress = "in_progress"
	ConsultationCompleted  = "completed"
)

// Consultation is a patient's request for medical advice. When a doctor
// starts it the status moves to in_progress and a chat is created.
type Consultation struct {
	Id          string    `bson:"_id" json:"id"`
	PatientId   string    `bson:"patientId" json:"patientId"`
	DoctorId    string    `bson:"doctorId,omitempty" json:"doctorId,omitempty"`
	Specialty   string    `bson:"specialty" json:"specialty"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Status      string    `bson:"status" json:"status"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
