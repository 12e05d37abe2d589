package domain

import "io"

// AudioUpload represents an audio file received from a client
type AudioUpload struct {
	Filename string    // declared by the client, untrusted
	Content  io.Reader // raw container bytes, any format
}

// VoiceChatResult carries every intermediate output of one voice chat round
type VoiceChatResult struct {
	Transcript string
	Response   string
	AudioPath  string // MP3 inside the request scratch directory
}
