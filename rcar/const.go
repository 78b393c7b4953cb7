package rcar

const (
	CommandForward   Command = 'b'
	CommandTurnLeft  Command = 'l'
	CommandTurnRight Command = 'r'
	CommandBackward  Command = 'f'
	CommandStop      Command = 's'
)

// Direction patterns as wired on the H-bridge (bits 2..5).
const (
	DirectionForward  Direction = 0b00010100
	DirectionBackward Direction = 0b00101000
	DirectionRight    Direction = 0b00100100
	DirectionLeft     Direction = 0b00011000
	DirectionStop     Direction = 0x00
)

const (
	IndicatorWorking Indicator = 0b00100000
	IndicatorOff     Indicator = 0x00
)

const (
	ChannelLeft Channel = iota // uint(0), 8-bit
	ChannelRight               // 16-bit
)

const (
	DefaultLeftDuty  uint16 = 219
	DefaultRightDuty uint16 = 0xFFFF
	MaxLeftDuty      uint16 = 0xFF
	MaxRightDuty     uint16 = 0xFFFF
)

const (
	DefaultBaudRate = 9600
	DefaultDataBits = 8
	DefaultVID      = "0403"
	DefaultPID      = "6001"
)

// Acknowledgements are sent verbatim, spelling and left/right swap included.
const (
	AckForward   = "Foward\n"
	AckTurnLeft  = "Right\n"
	AckTurnRight = "Left\n"
	AckBackward  = "Backwards\n"
	AckStop      = "Stop\n"
)
