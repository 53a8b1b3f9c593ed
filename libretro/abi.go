package libretro

import "unsafe"

// apiVersion is RETRO_API_VERSION.
const apiVersion = 1

// Environment command ids (RETRO_ENVIRONMENT_*).
const (
	envExperimental = 0x10000

	envSetRotation                       = 1
	envGetOverscan                       = 2
	envGetCanDupe                        = 3
	envSetMessage                        = 6
	envShutdown                          = 7
	envSetPerformanceLevel               = 8
	envGetSystemDirectory                = 9
	envSetPixelFormat                    = 10
	envSetInputDescriptors               = 11
	envSetKeyboardCallback               = 12
	envSetDiskControlInterface           = 13
	envSetHWRender                       = 14
	envGetVariable                       = 15
	envSetVariables                      = 16
	envGetVariableUpdate                 = 17
	envSetSupportNoGame                  = 18
	envGetLibretroPath                   = 19
	envSetFrameTimeCallback              = 21
	envSetAudioCallback                  = 22
	envGetRumbleInterface                = 23
	envGetInputDeviceCapabilities        = 24
	envGetSensorInterface                = 25 | envExperimental
	envGetCameraInterface                = 26 | envExperimental
	envGetLogInterface                   = 27
	envGetPerfInterface                  = 28
	envGetLocationInterface              = 29
	envGetCoreAssetsDirectory            = 30
	envGetSaveDirectory                  = 31
	envSetSystemAVInfo                   = 32
	envSetProcAddressCallback            = 33
	envSetSubsystemInfo                  = 34
	envSetControllerInfo                 = 35
	envSetMemoryMaps                     = 36 | envExperimental
	envSetGeometry                       = 37
	envGetUsername                       = 38
	envGetLanguage                       = 39
	envGetCurrentSoftwareFramebuffer     = 40 | envExperimental
	envGetHWRenderInterface              = 41 | envExperimental
	envSetSupportAchievements            = 42 | envExperimental
	envSetHWRenderContextNegotiation     = 43 | envExperimental
	envSetSerializationQuirks            = 44
	envSetHWSharedContext                = 44 | envExperimental
	envGetVFSInterface                   = 45 | envExperimental
	envGetLEDInterface                   = 46 | envExperimental
	envGetAudioVideoEnable               = 47 | envExperimental
	envGetMIDIInterface                  = 48 | envExperimental
	envGetFastforwarding                 = 49 | envExperimental
	envGetTargetRefreshRate              = 50 | envExperimental
	envGetInputBitmasks                  = 51 | envExperimental
	envGetCoreOptionsVersion             = 52
	envSetCoreOptions                    = 53
	envSetCoreOptionsIntl                = 54
	envSetCoreOptionsDisplay             = 55
	envGetPreferredHWRender              = 56
	envGetDiskControlInterfaceVersion    = 57
	envSetDiskControlExtInterface        = 58
	envGetMessageInterfaceVersion        = 59
	envSetMessageExt                     = 60
	envGetInputMaxUsers                  = 61
	envSetAudioBufferStatusCallback      = 62
	envSetMinimumAudioLatency            = 63
	envSetFastforwardingOverride         = 64
	envSetContentInfoOverride            = 65
	envGetGameInfoExt                    = 66
	envSetCoreOptionsV2                  = 67
	envSetCoreOptionsV2Intl              = 68
	envSetCoreOptionsUpdateDisplayCB     = 69
	envSetVariable                       = 70
	envGetThrottleState                  = 71 | envExperimental
	envGetSavestateContext               = 72 | envExperimental
	envGetHWRenderContextNegotiationSupp = 73 | envExperimental
	envGetJITCapable                     = 74
	envGetMicrophoneInterface            = 75 | envExperimental
)

// Memory region ids for retro_get_memory_data/size.
const (
	memorySaveRAM   = 0
	memoryRTC       = 1
	memorySystemRAM = 2
	memoryVideoRAM  = 3
)

// Serialization quirk flags (RETRO_SERIALIZATION_QUIRK_*).
const (
	quirkIncomplete        = 1 << 0
	quirkMustInitialize    = 1 << 1
	quirkCoreVariableSize  = 1 << 2
	quirkFrontVariableSize = 1 << 3
	quirkSingleSession     = 1 << 4
	quirkEndianDependent   = 1 << 5
	quirkPlatformDependent = 1 << 6
)

// Throttle modes (RETRO_THROTTLE_*).
const (
	throttleNone        = 0
	throttleFrameStep   = 1
	throttleFastForward = 2
	throttleSlowMotion  = 3
	throttleRewinding   = 4
	throttleVSync       = 5
	throttleUncapped    = 6
)

// Savestate contexts (RETRO_SAVESTATE_CONTEXT_*).
const savestateContextNormal = 0

// Message targets and types for SET_MESSAGE_EXT.
const (
	messageTargetAll = 0
	messageTargetOSD = 1
	messageTargetLog = 2
)

// numCoreOptionValuesMax is RETRO_NUM_CORE_OPTION_VALUES_MAX.
const numCoreOptionValuesMax = 128

// Bounds for sentinel-terminated arrays declared by cores.
const (
	maxVariables         = 1024
	maxInputDescriptors  = 1024
	maxControllerPorts   = 64
	maxControllerTypes   = 64
	maxSubsystems        = 64
	maxSubsystemROMs     = 32
	maxMemoryDescriptors = 1024
	maxContentOverrides  = 64
	maxOptionCategories  = 256
)

// The types below mirror the C structures of libretro.h. Field order and
// types must not change.

type systemInfo struct {
	libraryName     *byte
	libraryVersion  *byte
	validExtensions *byte
	needFullpath    bool
	blockExtract    bool
}

type gameGeometry struct {
	baseWidth   uint32
	baseHeight  uint32
	maxWidth    uint32
	maxHeight   uint32
	aspectRatio float32
}

type systemTiming struct {
	fps        float64
	sampleRate float64
}

type systemAVInfo struct {
	geometry gameGeometry
	timing   systemTiming
}

type gameInfo struct {
	path *byte
	data unsafe.Pointer
	size uintptr
	meta *byte
}

type gameInfoExt struct {
	fullPath       *byte
	archivePath    *byte
	archiveFile    *byte
	dir            *byte
	name           *byte
	ext            *byte
	meta           *byte
	data           unsafe.Pointer
	size           uintptr
	fileInArchive  bool
	persistentData bool
}

type variable struct {
	key   *byte
	value *byte
}

type coreOptionValue struct {
	value *byte
	label *byte
}

type coreOptionDefinition struct {
	key          *byte
	desc         *byte
	info         *byte
	values       [numCoreOptionValuesMax]coreOptionValue
	defaultValue *byte
}

type coreOptionsIntl struct {
	us    *coreOptionDefinition
	local *coreOptionDefinition
}

type coreOptionV2Category struct {
	key  *byte
	desc *byte
	info *byte
}

type coreOptionV2Definition struct {
	key             *byte
	desc            *byte
	descCategorized *byte
	info            *byte
	infoCategorized *byte
	categoryKey     *byte
	values          [numCoreOptionValuesMax]coreOptionValue
	defaultValue    *byte
}

type coreOptionsV2 struct {
	categories  *coreOptionV2Category
	definitions *coreOptionV2Definition
}

type coreOptionsV2Intl struct {
	us    *coreOptionsV2
	local *coreOptionsV2
}

type coreOptionDisplay struct {
	key     *byte
	visible bool
}

type inputDescriptor struct {
	port        uint32
	device      uint32
	index       uint32
	id          uint32
	description *byte
}

type controllerDescription struct {
	desc *byte
	id   uint32
}

type controllerInfo struct {
	types    *controllerDescription
	numTypes uint32
}

type subsystemMemoryInfo struct {
	extension *byte
	typ       uint32
}

type subsystemROMInfo struct {
	desc            *byte
	validExtensions *byte
	needFullpath    bool
	blockExtract    bool
	required        bool
	memory          *subsystemMemoryInfo
	numMemory       uint32
}

type subsystemInfo struct {
	desc    *byte
	ident   *byte
	roms    *subsystemROMInfo
	numROMs uint32
	id      uint32
}

type memoryDescriptor struct {
	flags      uint64
	ptr        unsafe.Pointer
	offset     uintptr
	start      uintptr
	selectMask uintptr
	disconnect uintptr
	length     uintptr
	addrspace  *byte
}

type memoryMap struct {
	descriptors    *memoryDescriptor
	numDescriptors uint32
}

type hwRenderCallback struct {
	contextType           int32
	contextReset          uintptr
	getCurrentFramebuffer uintptr
	getProcAddress        uintptr
	depth                 bool
	stencil               bool
	bottomLeftOrigin      bool
	versionMajor          uint32
	versionMinor          uint32
	cacheContext          bool
	contextDestroy        uintptr
	debugContext          bool
}

type frameTimeCallback struct {
	callback  uintptr
	reference int64
}

type audioCallback struct {
	callback uintptr
	setState uintptr
}

type logCallback struct {
	log uintptr
}

type perfCallback struct {
	getTimeUsec    uintptr
	getCPUFeatures uintptr
	getPerfCounter uintptr
	perfRegister   uintptr
	perfStart      uintptr
	perfStop       uintptr
	perfLog        uintptr
}

type perfCounter struct {
	ident      *byte
	start      uint64
	total      uint64
	callCnt    uint64
	registered bool
}

type rumbleInterface struct {
	setRumbleState uintptr
}

type ledInterface struct {
	setLEDState uintptr
}

type diskControlCallback struct {
	setEjectState     uintptr
	getEjectState     uintptr
	getImageIndex     uintptr
	setImageIndex     uintptr
	getNumImages      uintptr
	replaceImageIndex uintptr
	addImageIndex     uintptr
}

type diskControlExtCallback struct {
	diskControlCallback
	setInitialImage uintptr
	getImagePath    uintptr
	getImageLabel   uintptr
}

type message struct {
	msg    *byte
	frames uint32
}

type messageExt struct {
	msg      *byte
	duration uint32
	priority uint32
	level    int32
	target   int32
	typ      int32
	progress int8
}

type keyboardCallback struct {
	callback uintptr
}

type contentInfoOverride struct {
	extensions     *byte
	needFullpath   bool
	persistentData bool
}

type fastforwardingOverride struct {
	ratio         float32
	fastforward   bool
	notification  bool
	inhibitToggle bool
}

type throttleState struct {
	mode uint32
	rate float32
}

type audioBufferStatusCallback struct {
	callback uintptr
}

type coreOptionsUpdateDisplayCallback struct {
	callback uintptr
}
