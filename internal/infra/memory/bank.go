package memory

import "github.com/qmin9339-glitch/choseong/internal/domain"

// DefaultBank is the built-in question pool, used when no database is
// configured. Clues are the initial consonants of the answer.
func DefaultBank() []domain.Question {
	return []domain.Question{
		{ID: "q01", Clue: "ㅅㅂ", Category: "과일", Answer: "수박", Difficulty: 1},
		{ID: "q02", Clue: "ㄸㄱ", Category: "과일", Answer: "딸기", Difficulty: 1},
		{ID: "q03", Clue: "ㅂㄴㄴ", Category: "과일", Answer: "바나나", Difficulty: 1},
		{ID: "q04", Clue: "ㅋㄲㄹ", Category: "동물", Answer: "코끼리", Difficulty: 1},
		{ID: "q05", Clue: "ㅎㄹㅇ", Category: "동물", Answer: "호랑이", Difficulty: 1},
		{ID: "q06", Clue: "ㄷㄹㅈ", Category: "동물", Answer: "다람쥐", Difficulty: 2},
		{ID: "q07", Clue: "ㄱㅊㅉㄱ", Category: "음식", Answer: "김치찌개", Difficulty: 2},
		{ID: "q08", Clue: "ㅂㅂㅂ", Category: "음식", Answer: "비빔밥", Difficulty: 1},
		{ID: "q09", Clue: "ㄸㅂㅇ", Category: "음식", Answer: "떡볶이", Difficulty: 1},
		{ID: "q10", Clue: "ㅍㄹㅅ", Category: "나라", Answer: "프랑스", Difficulty: 1},
		{ID: "q11", Clue: "ㄷㅎㅁㄱ", Category: "나라", Answer: "대한민국", Difficulty: 1},
		{ID: "q12", Clue: "ㅇㅈㅌ", Category: "나라", Answer: "이집트", Difficulty: 2},
		{ID: "q13", Clue: "ㅁㅈㄱ", Category: "자연", Answer: "무지개", Difficulty: 1},
		{ID: "q14", Clue: "ㅎㅂㄹㄱ", Category: "자연", Answer: "해바라기", Difficulty: 2},
		{ID: "q15", Clue: "ㅂㄹㄱㅂ", Category: "자연", Answer: "바람개비", Difficulty: 3},
		{ID: "q16", Clue: "ㅈㅎㅊ", Category: "교통", Answer: "지하철", Difficulty: 1},
		{ID: "q17", Clue: "ㅈㅈㄱ", Category: "교통", Answer: "자전거", Difficulty: 1},
		{ID: "q18", Clue: "ㅋㅍㅌ", Category: "물건", Answer: "컴퓨터", Difficulty: 1},
		{ID: "q19", Clue: "ㄴㅈㄱ", Category: "물건", Answer: "냉장고", Difficulty: 2},
		{ID: "q20", Clue: "ㅌㄹㅂㅈ", Category: "물건", Answer: "텔레비전", Difficulty: 2},
	}
}
