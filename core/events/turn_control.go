package events

const (
	// KindVoiceStarted identifies the user enabling voice mode.
	KindVoiceStarted Kind = "turn_control.voice_started"
	// KindVoiceStopped identifies the user disabling voice mode.
	KindVoiceStopped Kind = "turn_control.voice_stopped"
	// KindInterruptRequested identifies a user barge-in.
	KindInterruptRequested Kind = "turn_control.interrupt_requested"
)

// VoiceStarted marks the user enabling voice mode.
type VoiceStarted struct{ Base }

// NewVoiceStarted creates a voice started event.
func NewVoiceStarted() VoiceStarted {
	return VoiceStarted{Base: NewBase(KindVoiceStarted)}
}

// VoiceStopped marks the user disabling voice mode.
type VoiceStopped struct{ Base }

// NewVoiceStopped creates a voice stopped event.
func NewVoiceStopped() VoiceStopped {
	return VoiceStopped{Base: NewBase(KindVoiceStopped)}
}

// InterruptRequested marks a user barge-in on agent playback.
type InterruptRequested struct{ Base }

// NewInterruptRequested creates an interrupt requested event.
func NewInterruptRequested() InterruptRequested {
	return InterruptRequested{Base: NewBase(KindInterruptRequested)}
}
