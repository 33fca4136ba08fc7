package audio

const (
	// DefaultSampleRate is the wire sample rate shared by both ends of the
	// session. The remote agent produces and consumes 24kHz audio only.
	DefaultSampleRate = 24000
	// DefaultChannels is the wire channel count. Everything is mono.
	DefaultChannels = 1
	DefaultFormat   = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Format:     encodingFormat(DefaultFormat),
	}
}

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	case EncodingFloat32:
		return 4
	}
	return -1
}

const (
	// EncodingLinear16 is the wire format: signed 16-bit little-endian PCM.
	EncodingLinear16 encodingFormat = "linear16"
	// EncodingFloat32 is the native device sample format on either side of
	// the codec boundary.
	EncodingFloat32 encodingFormat = "float32"
)
