package adapter

// Token is one translated unit of the input text.
type Token struct {
	Token    string   `json:"token"`
	Pinyin   string   `json:"pinyin"`
	Meanings []string `json:"meanings"`
}

type graphemeRequest struct {
	Graphemes []string `json:"graphemes"`
}

type graphemeResponse struct {
	AvailableGraphemes []string `json:"available_graphemes"`
}

type confirmResponse struct {
	Confirm bool `json:"confirm"`
}

type translationRequest struct {
	Text string `json:"text"`
}

type translationResponse struct {
	Tokens []Token `json:"tokens"`
}
