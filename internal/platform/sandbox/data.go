package sandbox

import (
	"github.com/healflow/healflow/internal/domain/appointment"
	"github.com/healflow/healflow/internal/domain/directory"
)

type departmentSeed struct {
	name, description string
}

var departments = []departmentSeed{
	{"Cardiology", "Heart and cardiovascular system specialists"},
	{"Orthopedics", "Bone, joint, and muscle specialists"},
	{"Pediatrics", "Children healthcare specialists"},
	{"Neurology", "Brain and nervous system specialists"},
	{"Dermatology", "Skin, hair, and nail specialists"},
	{"Oncology", "Cancer treatment and care specialists"},
	{"Gynecology", "Women's health specialists"},
	{"Ophthalmology", "Eye care specialists"},
}

type doctorSeed struct {
	username, email, fullName string
	dept                      int
	qualification             string
	experience                int
	fee                       float64
	phone                     string
}

var doctors = []doctorSeed{
	{"dr.sharma", "sharma@healflow.com", "Dr. Raghav Sharma", 0, "MD, FACC - Cardiology", 15, 1500, "555-0101"},
	{"dr.verma", "verma@healflow.com", "Dr. Priya Verma", 1, "MD, FAAOS - Orthopedics", 10, 1200, "555-0102"},
	{"dr.gupta", "gupta@healflow.com", "Dr. Ananya Gupta", 2, "MD, FAAP - Pediatrics", 8, 1000, "555-0103"},
	{"dr.singh", "singh@healflow.com", "Dr. Manav Singh", 3, "MD, PhD - Neurology", 12, 1800, "555-0104"},
	{"dr.reddy", "reddy@healflow.com", "Dr. Kavya Reddy", 4, "MD - Dermatology", 7, 1100, "555-0105"},
	{"dr.patel", "patel@healflow.com", "Dr. Sarthak Patel", 5, "MD, Oncologist", 18, 2000, "555-0106"},
	{"dr.nair", "nair@healflow.com", "Dr. Meera Nair", 6, "MD, FACOG - Gynecology", 11, 1300, "555-0107"},
	{"dr.kumar", "kumar@healflow.com", "Dr. Keshav Kumar", 7, "MD - Ophthalmology", 9, 1150, "555-0108"},
	{"dr.iyer", "iyer@healflow.com", "Dr. Aditi Iyer", 0, "MD - Cardiology", 6, 1400, "555-0109"},
	{"dr.mehta", "mehta@healflow.com", "Dr. Priyanshu Mehta", 1, "MD - Orthopedics", 13, 1250, "555-0110"},
}

type patientSeed struct {
	username, email, fullName, phone, dob, gender, address, blood string
}

const (
	male   = directory.GenderMale
	female = directory.GenderFemale
)

var patients = []patientSeed{
	{"parth.joshi", "parth@gmail.com", "Parth Joshi", "555-1001", "1990-05-15", male, "123 MG Road, Mumbai, Maharashtra", "A+"},
	{"sneha.desai", "sneha@yahoo.com", "Sneha Desai", "555-1002", "1985-08-20", female, "456 Park Street, Kolkata, West Bengal", "O+"},
	{"dev.malhotra", "dev@gmail.com", "Dev Malhotra", "555-1003", "1992-03-10", male, "789 Anna Salai, Chennai, Tamil Nadu", "B+"},
	{"isha.kapoor", "isha@gmail.com", "Isha Kapoor", "555-1004", "1988-11-05", female, "321 Connaught Place, Delhi", "AB+"},
	{"deep.agarwal", "deep@yahoo.com", "Deep Agarwal", "555-1005", "1995-07-22", male, "654 MG Road, Bangalore, Karnataka", "A-"},
	{"riya.shah", "riya@yahoo.com", "Riya Shah", "555-1006", "1991-02-18", female, "987 SG Highway, Ahmedabad, Gujarat", "O-"},
	{"tanmaya.rao", "tanmaya@gmail.com", "Tanmaya Rao", "555-1007", "1987-09-30", male, "159 Banjara Hills, Hyderabad, Telangana", "B-"},
	{"ananya.bose", "ananya@yahoo.com", "Ananya Bose", "555-1008", "1993-04-25", female, "753 Park Avenue, Pune, Maharashtra", "AB-"},
	{"abhishek.jain", "abhishek@gmail.com", "Abhishek Jain", "555-1009", "1989-12-08", male, "852 MG Road, Jaipur, Rajasthan", "A+"},
	{"diya.menon", "diya@yahoo.com", "Diya Menon", "555-1010", "1994-06-14", female, "951 Marine Drive, Kochi, Kerala", "O+"},
	{"yatharth.bajaj", "yatharth@yahoo.com", "Yatharth Bajaj", "555-1011", "1986-01-28", male, "147 Elgin Road, Chandigarh", "B+"},
	{"aayushi.chopra", "aayushi@gmail.com", "Aayushi Chopra", "555-1012", "1996-10-17", female, "258 Residency Road, Lucknow, UP", "AB+"},
}

// appointmentSeed places a visit days away from the seeding date and
// drives it to status.
type appointmentSeed struct {
	patient, doctor int
	days            int
	clock, reason   string
	status          string
}

const (
	statusBooked    = appointment.StatusBooked
	statusCompleted = appointment.StatusCompleted
	statusCancelled = appointment.StatusCancelled
)

var appointments = []appointmentSeed{
	{0, 0, 2, "10:00", "Chest pain and irregular heartbeat", statusBooked},
	{1, 1, 3, "14:00", "Knee pain after exercise", statusBooked},
	{2, 3, 1, "11:30", "Severe headaches", statusBooked},
	{3, 6, 4, "09:30", "Routine gynecological checkup", statusBooked},
	{4, 2, 5, "15:00", "Child vaccination", statusBooked},
	{5, 4, 2, "13:00", "Skin rash and irritation", statusBooked},
	{6, 7, 3, "10:30", "Eye checkup", statusBooked},

	{0, 0, -10, "10:00", "Annual heart checkup", statusCompleted},
	{1, 1, -15, "14:00", "Back pain consultation", statusCompleted},
	{7, 5, -5, "11:00", "Cancer screening", statusCompleted},
	{8, 8, -8, "16:00", "Heart palpitations", statusCompleted},

	{9, 9, -3, "12:00", "Joint pain", statusCancelled},
}

const (
	DoctorPassword  = "doctor123"
	PatientPassword = "patient123"

	availabilityDays  = 7
	availabilityStart = "09:00"
	availabilityEnd   = "17:00"

	seedDiagnosis    = "Patient examined and diagnosed"
	seedPrescription = "Prescribed medication as needed"
	seedNotes        = "Follow-up recommended in 3 months"
)
