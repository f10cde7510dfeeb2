package transcript

// Sample holds a canned visit transcript that can be loaded into the
// pipeline for demonstration and testing.
type Sample struct {
	Key        string
	Title      string
	Transcript string
}

// Samples lists the built-in visit transcripts, keyed by condition.
var Samples = []Sample{
	{
		Key:        "breast-cancer",
		Title:      "Breast Cancer Consultation",
		Transcript: `Good morning, Mrs. Alvarez? Yes, that's me. Hi, I'm Dr. Chen, I'll be meeting with you today. Let me just sanitize my hands real quick. Do you prefer Mrs. Alvarez or Maria? Maria's fine. Perfect, Maria. Can you tell me what brought you in today? Well, I've had this lump in my breast for a couple of months now. At first, I thought it was just hormonal, but it hasn't gone away. Okay, I see. Have you noticed any changes in the size of the lump, or any pain? It feels like it's gotten a little bigger, and sometimes I get tenderness in that area. Any discharge, skin changes, or swelling under your arm? No discharge, but I've noticed the skin looks a little dimpled around it. Alright. Have you ever had anything like this before? No, this is the first time. Any history of breast cancer in your family? My aunt on my mother's side had it, she was diagnosed in her 50s. Thank you for sharing that. Are you currently on any medications or treatments? Just for my cholesterol—atorvastatin. Okay. I want to be thorough here. We'll need to schedule imaging—like a mammogram and possibly an ultrasound—and depending on the results, a biopsy to better understand what's going on. If it does turn out to be cancer, there are some clinical trials right now for patients with early-stage breast cancer. Would you like me to share more about those? Yes, I'd like to know what options are out there. Some involve newer targeted therapies or immunotherapy, and many cover treatment costs and additional support. They usually take place at our hospital or a nearby center. If you're open to it, I'll connect you with our clinical trial coordinator so you can review which ones might fit your situation. That would be great, thank you.`,
	},
	{
		Key:        "diabetes",
		Title:      "Diabetes Management Visit",
		Transcript: `Good afternoon, Mr. Johnson. Hello, Dr. Martinez. How are you feeling today? Well, I've been having some issues with my blood sugar lately. It's been running higher than usual, even with my medication. I see. When did you first notice this? About three weeks ago. My morning readings have been around 180 to 200, when they're usually around 130. That's concerning. Have you made any changes to your diet or exercise routine recently? Not really. I've been trying to stick to my meal plan, but I'll admit I've been stressed at work and maybe eating out more. Stress can definitely affect blood sugar levels. Are you still taking your metformin twice daily? Yes, 1000mg twice a day. And I'm also on lisinopril for my blood pressure. Good. Any symptoms like increased thirst, frequent urination, or fatigue? Yes, actually. I've been getting up to use the bathroom more at night, and I feel more tired than usual. Have you been checking your feet regularly? My wife helps me check them. We haven't noticed any cuts or sores. Excellent. Given your elevated readings and symptoms, I think we need to adjust your medication. I'd like to add a second diabetes medication and possibly increase your metformin dose. There are also some clinical trials for new diabetes medications that might be beneficial. They're looking at once-weekly injections that could help with both blood sugar control and weight management. Would you be interested in learning more? Yes, that sounds promising. I'd like to explore all my options.`,
	},
	{
		Key:        "copd",
		Title:      "COPD Follow-up Visit",
		Transcript: `Good morning, Mr. Johnson? Yes, that's me. Hi, I'm Dr. Patel, I'll be seeing you today. Let me wash my hands real quick. Do you prefer Mr. Johnson or Daniel? Daniel's fine. Great, Daniel. Can you tell me what brought you in today? Well, I've been really short of breath lately. It started a couple weeks ago and seems to be getting worse. Okay, anything else besides the shortness of breath? Yeah, I've got this nagging cough that doesn't go away. It's worse at night. How long has the cough been going on? About a month. I thought it was allergies at first. Any history of lung problems? Asthma, COPD? No asthma. I was a smoker, quit about five years ago. I smoked for almost 20 years before that. Got it. Any other medical issues? High blood pressure, I take lisinopril for that. Okay, family history? My dad had emphysema, my mom's healthy. Thank you. I'm asking because there are some clinical trials right now for patients with chronic cough and early COPD symptoms, even if you haven't been formally diagnosed. Would you be interested in hearing about that? Possibly, yeah. What would it involve? Usually they look at new inhaled therapies. Some require a few office visits and breathing tests. Many cover travel and medication costs. That sounds like something I'd be willing to learn more about. Great, I'll have my coordinator give you the list of local trial options. Some are at our hospital here, others nearby. We'll see if you qualify.`,
	},
}

// SampleByKey returns the sample registered under key, falling back to the
// first sample when the key is unknown. ok reports whether the key matched.
func SampleByKey(key string) (Sample, bool) {
	for _, s := range Samples {
		if s.Key == key {
			return s, true
		}
	}
	return Samples[0], false
}

// ExampleTranscript is a pre-formatted consultation with explicit speaker
// labels, used to exercise turn parsing end to end.
const ExampleTranscript = `Doctor: Good morning, Mrs. Anderson. How are you feeling today?

Patient: Good morning, Dr. Williams. I've been having some concerning symptoms that I wanted to discuss with you. I'm 58 years old, and over the past few months, I've been experiencing some chest discomfort and shortness of breath, especially when I'm walking upstairs or doing any physical activity.

Doctor: I see. Can you describe the chest discomfort in more detail? Is it a sharp pain, pressure, or something else?

Patient: It feels more like pressure or tightness in my chest, almost like someone is squeezing it. It usually happens when I exert myself, and it goes away when I rest for a few minutes.

Doctor: How long have you been experiencing these symptoms?

Patient: About three months now. At first, I thought it was just because I was out of shape, but it's been getting progressively worse. Even walking to the mailbox sometimes triggers it now.

Doctor: Have you experienced any other symptoms along with the chest pressure and shortness of breath?

Patient: Yes, sometimes I feel a bit dizzy or lightheaded, especially when the chest pressure is really bad. And I've noticed I get tired much more easily than I used to. Oh, and a couple of times I've had some nausea.

Doctor: I understand. Let me ask about your medical history. Do you have any existing medical conditions or take any medications?

Patient: I have high blood pressure, and I've been taking lisinopril for that for about five years now. My mother had heart disease, and my father had diabetes. I also take a multivitamin daily.

Doctor: Any known allergies to medications?

Patient: Yes, I'm allergic to penicillin - it gives me a severe rash.

Doctor: Are you currently employed, and if so, what type of work do you do?

Patient: I work as an accountant here in Denver, Colorado. It's mostly desk work, but lately, even walking from the parking lot to my office building has been difficult.

Doctor: Based on what you're describing - the chest pressure with exertion, shortness of breath, and associated symptoms, along with your family history and existing hypertension - I'm concerned this could be related to coronary artery disease or angina. 

Patient: That sounds serious. What does that mean exactly?

Doctor: Coronary artery disease occurs when the blood vessels that supply your heart muscle become narrowed or blocked. This can cause the symptoms you're experiencing, particularly during physical activity when your heart needs more oxygen. The good news is that this is a very treatable condition.

Doctor: I'd like to run some tests to confirm the diagnosis. We'll start with an EKG and some blood work today, and I'd also like to schedule you for a stress test next week.

Patient: Okay, whatever you think is best. Should I be worried about having a heart attack?

Doctor: While coronary artery disease does increase the risk of heart attack, catching it early like we're doing gives us many options for treatment. In the meantime, I want you to avoid any strenuous physical activity, and if you experience severe chest pain, call 911 immediately.

Doctor: I'm also going to start you on a low-dose aspirin daily, unless you have any contraindications, and we may need to adjust your blood pressure medication. We'll also discuss lifestyle modifications like diet and exercise once we have your test results.

Patient: Thank you, Dr. Williams. I'm glad I came in. When will I know the results of the tests?

Doctor: We should have your blood work back by tomorrow, and I'll call you with those results. The stress test results we'll review together at your follow-up appointment next week. My nurse will schedule that for you before you leave today.`
