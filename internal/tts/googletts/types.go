package googletts

// synthesizeRequest is the JSON body for the text:synthesize endpoint.
type synthesizeRequest struct {
	Input              synthesisInput `json:"input"`
	Voice              voiceParams    `json:"voice"`
	AudioConfig        audioConfig    `json:"audioConfig"`
	EnableTimePointing []string       `json:"enableTimePointing"`
}

// synthesisInput carries the SSML document to render.
type synthesisInput struct {
	SSML string `json:"ssml"`
}

// voiceParams selects the voice.
type voiceParams struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
	SSMLGender   string `json:"ssmlGender,omitempty"`
}

// audioConfig selects the output encoding and playback rate.
type audioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate,omitempty"`
}

// synthesizeResponse is the JSON response from the text:synthesize endpoint.
type synthesizeResponse struct {
	AudioContent string          `json:"audioContent"`
	Timepoints   []timepointJSON `json:"timepoints"`
}

// timepointJSON is one SSML mark timing event as reported by the backend.
type timepointJSON struct {
	MarkName    string  `json:"markName"`
	TimeSeconds float64 `json:"timeSeconds"`
}

// errorResponse is the standard Google API error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
