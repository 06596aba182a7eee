package vocab

// Default returns the built-in Korean word tables.
func Default() *Vocabulary {
	return &Vocabulary{
		Categories: []WordOption{
			{"greeting", "인사"},
			{"emotion", "감정"},
			{"status", "상태"},
			{"object", "사물"},
		},
		Subjects: []WordOption{
			{"i", "나"},
			{"you", "너"},
			{"we", "우리"},
			{QuestionSubject, "질문"},
		},
		CoreWords: map[string][]WordOption{
			"greeting": {
				{"basic", "기본"},
				{"wellness", "안부"},
				{"thanks", "감사"},
				{"farewell", "작별"},
			},
			"emotion": {
				{"mood", "기분"},
				{"heart", "마음"},
				{"worry", "걱정"},
				{"love", "사랑"},
				{"loneliness", "외로움"},
			},
			"status": {
				{"meal", "식사"},
				{"pain", "통증"},
				{"temperature", "온도"},
				{"sleep", "수면"},
				{"water", "물"},
				{"food", "밥"},
				{"medicine", "약"},
				{"toilet", "화장실"},
			},
			"object": {
				{"tv", "TV"},
				{"light", "조명"},
				{"phone", "휴대폰"},
				{"ac", "냉난방기"},
			},
		},
		Predicates: map[string][]WordOption{
			"greeting_basic":    {{"hello", "안녕"}, {"morning", "아침"}, {"lunch", "점심"}, {"evening", "저녁"}},
			"greeting_wellness": {{"curious", "궁금"}, {"good", "좋음"}, {"okay", "괜찮음"}, {"sleep", "잠"}},
			"greeting_thanks":   {{"thankyou", "고마워"}, {"visit", "방문"}, {"help", "도움"}, {"kind", "친절"}},
			"greeting_farewell": {{"goodbye", "잘가"}, {"goodwork", "수고"}, {"careful", "조심"}, {"nexttime", "다음에"}},

			"emotion_mood":       {{"good", "좋다"}, {"bad", "나쁘다"}, {"happy", "기쁘다"}, {"sad", "슬프다"}, {"strange", "묘하다"}},
			"emotion_heart":      {{"comfortable", "편안하다"}, {"anxious", "불안하다"}, {"stuffy", "답답하다"}, {"heavy", "무겁다"}},
			"emotion_worry":      {{"is", "되다"}, {"much", "많다"}, {"big", "크다"}, {"none", "없다"}, {"ahead", "앞서다"}},
			"emotion_love":       {{"do", "하다"}, {"feel", "느끼다"}, {"want", "받고싶다"}, {"big", "크다"}},
			"emotion_loneliness": {{"feel", "느끼다"}, {"big", "크다"}, {"severe", "심하다"}, {"ride", "타다"}},

			"status_meal":        {{"hungry", "배고프다"}, {"full", "배부르다"}, {"ate", "먹었다"}, {"didnt_eat", "안먹었다"}},
			"status_pain":        {{"have", "있다"}, {"none", "없다"}, {"severe", "심하다"}, {"little", "조금"}, {"okay", "괜찮다"}},
			"status_temperature": {{"cold", "춥다"}, {"hot", "덥다"}, {"cool", "시원하다"}, {"warm", "따뜻하다"}},
			"status_sleep":       {{"sleepy", "졸리다"}, {"slept", "잤다"}, {"couldnt_sleep", "못잤다"}, {"tired", "피곤하다"}},
			"status_water":       {{"drink", "마시다"}, {"give", "주다"}, {"cold", "차갑다"}, {"hot", "뜨겁다"}},
			"status_food":        {{"hungry", "배고프다"}, {"full", "배부르다"}, {"eat", "먹다"}, {"didnt_eat", "안먹었다"}},
			"status_medicine":    {{"need", "필요하다"}, {"took", "먹었다"}, {"give", "주다"}, {"didnt_take", "안 먹었다"}},
			"status_toilet":      {{"want_to_go", "가고싶다"}, {"urgent", "급하다"}, {"help", "도와주다"}, {"uncomfortable", "불편하다"}},

			"object_tv":    {{"turn_on", "켜다"}, {"turn_off", "끄다"}, {"up", "올리다"}, {"down", "내리다"}},
			"object_light": {{"turn_on", "켜다"}, {"turn_off", "끄다"}, {"bright", "밝게"}, {"dark", "어둡게"}},
			"object_phone": {{"give", "주다"}, {"need", "필요하다"}, {"bring", "가져오다"}, {"find", "찾다"}},
			"object_ac":    {{"turn_on", "켜다"}, {"turn_off", "끄다"}, {"up", "올리다"}, {"down", "내리다"}},
		},
		SubjectPredicates: map[string][]WordOption{
			"greeting": {{"hello", "안녕"}, {"glad", "반가워"}, {"thanks", "고마워"}, {"bye", "잘가"}},
			"emotion":  {{"good", "좋아"}, {"sad", "슬퍼"}, {"happy", "기뻐"}, {"angry", "화나"}, {"scared", "무서워"}, {"bored", "심심해"}},
			"status":   {{"hungry", "배고파"}, {"thirsty", "목말라"}, {"hurt", "아파"}, {"cold", "추워"}, {"hot", "더워"}, {"sleepy", "졸려"}, {"tired", "피곤해"}, {"full", "배불러"}},
			"object":   {{"need", "필요해"}, {"turn_on", "켜줘"}, {"turn_off", "꺼줘"}, {"bring", "가져와"}},
		},
	}
}
