package domain

import "time"

type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Settings keys the dispatcher reads. The rows are owned by the admin
// settings screen; this service never writes them.
const (
	SettingSMSAPIKey   = "sms_api_key"
	SettingSMSSenderID = "sms_sender_id"
	SettingSMSEnabled  = "sms_enabled"
)

// SMSEnabledValue is the only settings value treated as "on".
const SMSEnabledValue = "1"

type Setting struct {
	Name  string `db:"name" json:"name"`
	Value string `db:"value" json:"value"`
}

// DeliveryLogEntry is one attempted outbound message. Rows are append-only:
// the dispatcher inserts exactly one per attempt that reaches the provider
// call and never updates it afterwards.
type DeliveryLogEntry struct {
	ID                int64          `db:"id" json:"id"`
	CorrelationID     *string        `db:"correlation_id" json:"correlationId,omitempty"`
	Recipient         string         `db:"recipient" json:"recipient"`
	Message           string         `db:"message" json:"message"`
	Status            DeliveryStatus `db:"status" json:"status"`
	ProviderMessageID *string        `db:"provider_message_id" json:"providerMessageId,omitempty"`
	SentAt            time.Time      `db:"sent_at" json:"sentAt"`
}

// ImmunizationReminder is the best-effort side log written after a
// successful immunization reminder send.
type ImmunizationReminder struct {
	ID        int64     `db:"id" json:"id"`
	PatientID int64     `db:"patient_id" json:"patientId"`
	Message   string    `db:"message" json:"message"`
	SentAt    time.Time `db:"sent_at" json:"sentAt"`
	SentBy    *int64    `db:"sent_by" json:"sentBy,omitempty"`
}

// SendRequest is the Dispatcher Core input. CorrelationID, when set,
// identifies the business event (e.g. "appointment:42") for cross-request
// idempotency.
type SendRequest struct {
	Recipient     string
	Message       string
	CorrelationID string
}

// DispatchResult is the single uniform outcome shape for every dispatch.
// Callers branch on Success (and Duplicate) and display Message; they never
// see provider or storage internals.
type DispatchResult struct {
	Success           bool   `json:"success"`
	Duplicate         bool   `json:"duplicate,omitempty"`
	Message           string `json:"message"`
	Recipient         string `json:"recipient,omitempty"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
}

// ProviderPayload is the decoded gateway response body. Field mapping for a
// concrete gateway lives in pkg/provider; the dispatcher only interprets
// Success.
type ProviderPayload struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// ProviderResult is what the adapter always returns, even on transport
// failure. TransportError is non-empty when the HTTP exchange never
// completed; StatusCode and Payload are only meaningful when it is empty.
type ProviderResult struct {
	StatusCode     int
	Payload        ProviderPayload
	TransportError string
}

// Completed reports whether the request reached the gateway and got a
// response, regardless of status.
func (r ProviderResult) Completed() bool {
	return r.TransportError == ""
}

// Patient carries the columns the dispatcher needs; the full patient record
// is owned by the main application.
type Patient struct {
	ID          int64  `db:"id" json:"id"`
	FirstName   string `db:"first_name" json:"firstName"`
	LastName    string `db:"last_name" json:"lastName"`
	PhoneNumber string `db:"phone_number" json:"phoneNumber"`
}

func (p Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Appointment joined with its patient, as needed by the reminder trigger.
type Appointment struct {
	ID           int64  `db:"id" json:"id"`
	PatientID    int64  `db:"patient_id" json:"patientId"`
	PatientName  string `db:"patient_name" json:"patientName"`
	PhoneNumber  string `db:"phone_number" json:"phoneNumber"`
	ScheduleDate string `db:"schedule_date" json:"scheduleDate"`
	ScheduleTime string `db:"schedule_time" json:"scheduleTime"`
}

// FollowUpDue is one medical record due for a follow-up reminder today,
// joined with the patient contact columns.
type FollowUpDue struct {
	RecordID    int64  `db:"record_id" json:"recordId"`
	PatientID   int64  `db:"patient_id" json:"patientId"`
	PatientName string `db:"patient_name" json:"patientName"`
	PhoneNumber string `db:"phone_number" json:"phoneNumber"`
	Notes       string `db:"notes" json:"notes"`
}

// SweepReport summarizes one daily sweep run.
type SweepReport struct {
	RunID     string    `json:"runId"`
	Date      string    `json:"date"`
	Claimed   bool      `json:"claimed"`
	Attempted int       `json:"attempted"`
	Sent      int       `json:"sent"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"startedAt"`
}
