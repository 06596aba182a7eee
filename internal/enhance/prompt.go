package enhance

import (
	"fmt"
	"strings"
)

const systemMessage = `너는 말하기 어려운 사람의 짧은 단어 조합을 일상 대화체 문장으로 바꿔 주는 도우미야.
가족이나 친구에게 말하듯 편하고 짧게 말해 줘. 상황에 따라 존댓말과 반말을 알맞게 골라.`

func userPrompt(req *Request) string {
	var b strings.Builder

	if req.Question {
		b.WriteString("아래 단어 조합을 실제로 묻는 듯한 짧은 질문으로 바꿔 줘.\n\n")
	} else {
		b.WriteString("아래 단어 조합을 실제로 말하는 듯한 자연스러운 문장으로 바꿔 줘.\n\n")
	}

	fmt.Fprintf(&b, "- 주어: %s\n", req.Subject)
	if req.CoreWord != "" {
		fmt.Fprintf(&b, "- 핵심 단어: %s\n", req.CoreWord)
	}
	fmt.Fprintf(&b, "- 서술어: %s\n", req.Predicate)
	fmt.Fprintf(&b, "- 카테고리: %s\n", req.Category)
	fmt.Fprintf(&b, "- 조합된 문장: %s\n", req.Sentence)
	if req.Question {
		b.WriteString("- 형식: 질문\n")
	}

	b.WriteString("\n규칙:\n")
	if req.Question {
		b.WriteString("1. 짧은 질문 하나로 답해. 예: \"너 물 필요해?\" → \"물 마실래?\"\n")
	} else {
		b.WriteString("1. 딱딱한 표현은 부드럽게 풀어 말해. 예: \"물 마시다\" → \"물 마시고 싶어\"\n")
	}
	b.WriteString("2. 자연스러우면 주어는 생략해도 좋아.\n")
	if req.Politeness == Formal {
		b.WriteString("3. 존댓말로 말해.\n")
	} else {
		b.WriteString("3. 편한 반말로 말해. 부탁은 \"~줄래?\"처럼 부드럽게.\n")
	}
	b.WriteString("4. 문장만 답하고 따옴표나 설명은 붙이지 마.\n")
	return b.String()
}

// cleanSentence strips wrapping quotes and whitespace from a model reply.
func cleanSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”")
	return strings.TrimSpace(s)
}
