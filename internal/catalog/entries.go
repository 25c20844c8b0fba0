package catalog

// Static catalog data. Declaration order is load-bearing: the matcher takes
// the first entry whose trigger phrase equals or is contained in the query,
// so more specific entries must precede generic ones.

// passwordEntryKey is selected by the secondary keyword pass even when no
// trigger phrase matched (account lockouts are high-value queries).
const passwordEntryKey = "how to reset my password"

// passwordKeywords drive the secondary matching pass.
var passwordKeywords = []string{"password", "reset", "forgot", "change password", "cant login"}

// defaultFollowUpResponse is returned when a follow-up reply cannot be
// classified into any branch.
const defaultFollowUpResponse = "I'm sorry, I'm not sure how to help with that specific request. Is there something else about North American University that I can assist you with?"

var defaultEntries = []Entry{
	{
		Key:      "what are the tuition fees",
		Triggers: []string{"what are the tuition fees", "tuition fees", "what are the tuition and fees", "how much is tuition"},
		Answer: `Okay, here are the full tuition and fee details for international and resident students at North American University:
International Undergraduate:
- Tuition per credit (1-11 credits): $1,125
- Tuition per semester (12-16 credits): $13,500
- Each additional credit over 16 credits: $1,125
- Summer Tuition per class: $873
Mandatory Fees per Semester:
- Departmental Fees: $55
- Computer & Internet Fees: $100
- Library Fee: $100
- Student Service Fee: $95
- Course with Lab Fee: $75
- Athletics Fee (Football, Basketball, Soccer): $1,050
- Athletics Fee (all other sports): $800
- Parking Fee (Covered/Uncovered): $80/$40
Estimated Total for International Undergraduate per Semester: $16,826
Resident Undergraduate:
- Tuition per credit (1-11 credits): $614
- Tuition per semester (12-16 credits): $7,368
- Each additional credit over 16 credits: $614
- Summer Tuition per class: $873
Mandatory Fees per Semester:
- Departmental Fees: $55
- Computer & Internet Fees: $100
- Library Fee: $100
- Student Service Fee: $95
- Course with Lab Fee: $75
- Athletics Fee (Football, Basketball, Soccer): $1,050
- Athletics Fee (all other sports): $800
- Parking Fee (Covered/Uncovered): $80/$40
Estimated Total for Resident Undergraduate per Semester: $10,133
International Graduate:
- Tuition per credit:
  - MBA: $658
  - MS Computer Science: $732
  - M.Ed. Programs: $511
- Total Tuition (30 credits):
  - MBA: $19,740
  - MS Computer Science: $21,960
  - M.Ed. Programs: $15,330
Resident Graduate:
- Tuition per credit:
  - MBA: $402
  - MS Computer Science: $402
  - M.Ed. Programs: $326
- Total Tuition (30 credits):
  - MBA: $12,060
  - MS Computer Science: $12,060
  - M.Ed. Programs: $9,780
Let me know if you need any clarification or have additional questions!`,
		Sources: []string{"https://www.na.edu/admissions/tuition-and-fees/"},
		FollowUp: &FollowUpSpec{
			Prompt: "Are you planning to use on-campus housing as well?",
			Kind:   FollowUpYesNo,
			Branches: []Branch{
				{Label: "yes", Response: `Great! Here's the housing and meal plan information:

Housing Options:
- Housing On Campus 2 Bed-Room only for men: $2,500.00 per semester
- Housing On Campus 3 Bed-Room only for men: $2,100.00 per semester
- Housing On Campus 4 Bed-Room only for men: $1,900.00 per semester
- Housing on Hotel 2 Bed-Room: $3,600.00 per semester
- Housing on Hotel 3 Bedroom: $3,000.00 per semester
- Housing on Apartment 2 Bedroom: $3,200.00 per semester
- Summer Housing: $1,250.00

Additional Housing Fees:
- Housing Deposit Fee: $150.00
- Housing Application Fee: $50.00

Meal Service Options:
- 19-Meal per Week: $2,500.00 per semester
- 14-Meal per Week: $1,900.00 per semester
- 10-Meal per Week: $1,300.00 per semester

Note: Housing is first-come, first-served.

This brings your total estimated costs to:
- Tuition: $13,500 per semester (12-16 credits)
- Housing (varies by option): $1,900 - $3,600 per semester
- Meal Plan (varies by option): $1,300 - $2,500 per semester
- Mandatory Fees: Approximately $450

Would you like more specific information about any housing options?`},
				{Label: "no", Response: `No problem! If you ever need information about housing or other campus services in the future, feel free to ask.

Is there anything else you'd like to know about North American University?`},
			},
			Default: defaultFollowUpResponse,
		},
	},
	{
		Key:      "how do i apply for admission",
		Triggers: []string{"how do i apply for admission", "how do i apply", "application process", "how to apply"},
		Answer: `Okay, here are the steps to apply to North American University as an international student:
STEP 1: Create and submit application
- Create your NAU Account at https://apply.na.edu/admission and submit a completed application online.
STEP 2: Pay application fee* ($75 USD)
- Please select to make the payment online via Credit Card or an International Wire Transfer by accessing NAU's wire transfer banking information.
STEP 3: Send Required Documents
In order to obtain admission to NAU, an international student must submit the following documents by the application deadlines. All application documents should be properly scanned and emailed in PDF format to intadmissions@na.edu:
1. Copy of Passport: Only the photograph and visa (when received) page are necessary.
2. Official Academic Credentials & Test Scores:
- Official Copy of the High School Diploma Evaluation (The transcript has to be evaluated at one of the agencies listed on the website)
- Official SAT/ACT, official TOEFL or official IELTS scores.
3. Certificate of Finances (COF): This form demonstrates that you have sufficient funds to cover the cost of tuition, fees, and living expenses for at least the first year of study.
4. Affidavit of Support (if applicable): If you will be sponsored by family or another individual, they will need to complete this form.
Let me know if you have any other questions about the application process!`,
		Sources: []string{"https://www.na.edu/admissions/"},
		FollowUp: &FollowUpSpec{
			Prompt: "Are you applying as an undergraduate or graduate student?",
			Kind:   FollowUpCategorical,
			Branches: []Branch{
				{Label: "undergraduate", Response: `Great! For undergraduate admission, you'll also need to provide:

1. High school transcripts (evaluated by a credential evaluation service)
2. English proficiency test scores (TOEFL: minimum 61, IELTS: minimum 5.5)
3. SAT/ACT scores (optional but recommended for scholarship consideration)

The application deadlines are:
- Fall semester: August 1
- Spring semester: December 15
- Summer semester: May 1

Would you like more specific information about any of the undergraduate programs?`},
				{Label: "graduate", Response: `Excellent! For graduate admission, you'll need these additional documents:

1. Bachelor's degree transcripts (evaluated by a credential evaluation service)
2. English proficiency test scores (TOEFL: minimum 79, IELTS: minimum 6.5)
3. Statement of Purpose
4. Two letters of recommendation
5. Resume/CV
6. GRE/GMAT scores (required for some programs)

The application deadlines are:
- Fall semester: July 15
- Spring semester: December 1
- Summer semester: April 15

Is there a specific graduate program you're interested in learning more about?`},
			},
			Default: defaultFollowUpResponse,
		},
	},
	{
		Key:      "what programs does nau offer",
		Triggers: []string{"what programs does nau offer", "programs offered", "available degrees", "majors", "degree programs"},
		Answer: `North American University offers the following undergraduate and graduate degree programs:
Undergraduate Programs:
- Bachelor of Business Administration (BBA)
- Bachelor of Science in Computer Science (BS)
- Bachelor of Science in Criminal Justice (BS)
- Bachelor of Science in Education (BS)
Graduate Programs:
- Master of Business Administration (MBA)
- Master of Science in Computer Science (MS)
- Master of Education (M.Ed.) in Curriculum and Instruction
- Master of Education (M.Ed.) in Educational Leadership
In addition, NAU also offers the following programs:
Language Programs:
- Intensive English Program (IEP)
- English as a Second Language (ESL)
Educator Certification Programs:
- Teacher Certification
- Principal Certification
- Superintendent Certification
Continuing Education Programs:
- Professional Development Courses
- Certificate Programs
The university is committed to providing a well-rounded education that prepares students for successful careers. The degree programs are designed to develop critical thinking, problem-solving, and leadership skills.
Let me know if you'd like more information about any specific program!`,
		Sources: []string{"https://www.na.edu/academics/"},
		FollowUp: &FollowUpSpec{
			Prompt: "Which program are you most interested in learning more about?",
			Kind:   FollowUpOpenProgram,
			Branches: []Branch{
				{Label: "business", Response: "The Bachelor of Business Administration (BBA) program at NAU offers concentrations in Accounting, Finance, International Business, and Management. Students learn key business principles and develop leadership skills. The BBA requires 120 credit hours including general education courses, business core courses, and concentration courses."},
				{Label: "computer science", Response: "The Computer Science program at NAU offers a comprehensive curriculum covering programming, algorithms, database management, and software engineering. Students can specialize in areas like AI, cybersecurity, or data science. The program prepares graduates for careers as software developers, systems analysts, and IT consultants."},
				{Label: "education", Response: "The Education program at NAU prepares students for careers in teaching and educational administration. The program offers specializations in Early Childhood Education, Bilingual Education, and Educational Leadership. Students complete coursework and supervised teaching experiences to prepare for teacher certification."},
				{Label: "criminal justice", Response: "The Criminal Justice program at NAU covers law enforcement, corrections, and legal systems. Students learn about criminal behavior, constitutional law, and public policy. The program prepares graduates for careers in law enforcement, corrections, homeland security, and legal services."},
			},
			Default: "Each program at NAU is designed to provide a strong educational foundation and practical skills. I'd be happy to provide more specific information about any program that interests you. Just let me know which one you'd like to learn more about.",
		},
	},
	{
		Key:      "how to reset my password",
		Triggers: []string{"how to reset my password", "reset password", "forgot password", "change password"},
		Answer: `Okay, here are the steps to reset your password for your North American University account:
1. Go to the password reset page at https://passwordreset.microsoftonline.com/
2. Enter your NAU username (usually the first initial of your first name followed by your last name, e.g. jsmith@na.edu)
3. Enter the characters shown in the image to verify you are not a robot.
4. Select "Email" as the contact method for verification.
5. Check your email for a verification code and enter it on the next page.
6. Create a new password, confirm it, and click "Finish".
7. Once your password has been successfully reset, you can sign in to your NAU account with the new password.
A few important things to note:
- You need to complete the reset process within 60 minutes of initiating it.
- Make sure to update the new password on any devices or email programs you use to access your NAU account.
- If you have any trouble with the reset process, you can contact the IT Helpdesk at support@na.edu or 832-230-5541 for assistance.
Let me know if you have any other questions!`,
		Sources: []string{"https://www.na.edu/it-services/"},
	},
	{
		Key:      "how do i select the courses",
		Triggers: []string{"how do i select the courses", "select courses", "register for classes", "course registration"},
		Answer: `Okay, here are the steps to select and register for courses at North American University:
1. Meet with your Academic Advisor
- Schedule an appointment with your assigned academic advisor to discuss your degree plan and course options.
- Your advisor can help you select the appropriate courses based on your major, prerequisites, and academic progress.
2. Review the Course Catalog
- Familiarize yourself with the course descriptions, prerequisites, and schedules in the university's course catalog.
- Make a list of the courses you need to take and any electives you're interested in.
3. Register for Courses
- Log into your MyNAU student portal at https://portal.na.edu
- Navigate to the "Registration" section and select "Course Search"
- Use the filters to find available sections of the courses you need
- Add the courses to your shopping cart and complete the registration process
4. Finalize Your Schedule
- Review your schedule to ensure you've registered for the correct courses and credit hours.
- Make any necessary adjustments by adding or dropping courses during the add/drop period.
- Confirm your final schedule and tuition charges on your student account.
5. Attend Courses
- Attend all scheduled class sessions and actively participate.
- Complete all assignments, projects, and exams as required for each course.
Let me know if you have any other questions about the course selection and registration process!`,
		Sources: []string{"https://www.na.edu/academics/registration/"},
		FollowUp: &FollowUpSpec{
			Prompt: "Do you need help with checking course availability for the upcoming semester?",
			Kind:   FollowUpYesNo,
			Branches: []Branch{
				{Label: "yes", Response: `To check course availability:

1. Log into your MyNAU portal at https://portal.na.edu
2. Go to the "Student" tab
3. Click on "Course Search"
4. Select the upcoming term from the dropdown menu
5. You can search by:
   - Course Number (e.g., CS 1301)
   - Subject (e.g., Computer Science)
   - Meeting Time (if you have specific scheduling needs)
   - Instructor (if you prefer a specific professor)

The results will show you:
- Course name and section
- Meeting days and times
- Available seats
- Instructor name
- Room location

Remember that some courses fill up quickly, so I recommend registering as soon as your registration period opens. Would you like advice on specific courses?`},
				{Label: "no", Response: `Alright! If you ever need help with course selection or have questions about specific courses, feel free to ask.

Is there anything else I can help you with regarding your studies at North American University?`},
			},
			Default: defaultFollowUpResponse,
		},
	},
	{
		Key:      "how do i access my nau portal",
		Triggers: []string{"how do i access my nau portal", "access portal", "login to portal", "student portal"},
		Answer: `Here are the steps to access the North American University (NAU) student portal:
1. Open the school website : https://www.na.edu/
2. Click on the NAU Portal on the top menu
3. Enter your username and password
Let me know if you have any other questions about accessing your NAU student portal!`,
		Sources: []string{"https://www.na.edu/it-services/"},
		FollowUp: &FollowUpSpec{
			Prompt: "Are you having trouble logging in to your portal?",
			Kind:   FollowUpYesNo,
			Branches: []Branch{
				{Label: "yes", Response: `If you're having trouble logging in, here are some troubleshooting steps:

1. Make sure you're using the correct username format (usually firstname.lastname or first initial followed by lastname)
2. Check that Caps Lock is not enabled when typing your password
3. Clear your browser cache and cookies, then try again
4. Try using a different browser (Chrome, Firefox, Edge)
5. If you've forgotten your password, follow the "Forgot Password" link on the login page

If none of these steps work, you can contact the IT Help Desk:
- Email: support@na.edu
- Phone: 832-230-5541
- Hours: Monday-Friday, 8:00 AM - 5:00 PM

Would you like me to explain any of these steps in more detail?`},
				{Label: "no", Response: `Great! If you ever encounter any issues with the portal, don't hesitate to ask for help.

The portal is where you'll find important information like:
- Course registration
- Grades and academic records
- Financial information
- Campus announcements
- Access to university email

Is there anything specific you're looking to do in the portal?`},
			},
			Default: defaultFollowUpResponse,
		},
	},
}
