package cli

var (
	verbose  bool
	jsonLogs bool

	// shared by interpret, replay and props
	propsPath string

	// for interpret command
	hardwarePropsPath string
	traceOut          string
	logCapacity       int

	// for replay command
	honorProps []string
)
