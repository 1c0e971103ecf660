package rpmpkg

// Tag type codes from the header index record, per spec.md §4.B.
const (
	typeNull       = 0
	typeChar       = 1
	typeInt8       = 2
	typeInt16      = 3
	typeInt32      = 4
	typeInt64      = 5
	typeString     = 6
	typeBin        = 7
	typeStringArr  = 8
	typeI18NString = 9
)

// Header tag numbers used by this parser, per spec.md §4.B.
const (
	tagName        = 1000
	tagVersion     = 1001
	tagRelease     = 1002
	tagEpoch       = 1003
	tagSummary     = 1004
	tagDescription = 1005
	tagBuildTime   = 1006
	tagBuildHost   = 1007
	tagInstalledSize = 1009
	tagVendor      = 1010
	tagLicense     = 1014
	tagPackager    = 1015
	tagGroup       = 1016
	tagURL         = 1020
	tagArch        = 1022

	tagProvideName    = 1047
	tagRequireFlags   = 1048
	tagRequireName    = 1049
	tagRequireVersion = 1050
	tagConflictName   = 1054
	tagConflictVersion = 1055
	tagConflictFlags  = 1053
	tagObsoleteName   = 1090
	tagObsoleteVersion = 1115
	tagObsoleteFlags  = 1114

	tagProvideVersion = 1113
	tagProvideFlags   = 1112

	tagSourceRPM    = 1044
	tagArchiveSize  = 1046

	tagOldFilenames = 1027
	tagFileSizes    = 1028
	tagFileModes    = 1030
	tagFileFlags    = 1037
	tagDirIndexes   = 1117
	tagBaseNames    = 1118
	tagDirNames     = 1119

	tagChangelogTime = 1080
	tagChangelogName = 1081
	tagChangelogText = 1082

	tagRecommendName    = 5046
	tagRecommendVersion = 5047
	tagRecommendFlags   = 5048
	tagSuggestName      = 5049
	tagSuggestVersion   = 5050
	tagSuggestFlags     = 5051
	tagSupplementName    = 5052
	tagSupplementVersion = 5053
	tagSupplementFlags   = 5054
	tagEnhanceName       = 5055
	tagEnhanceVersion    = 5056
	tagEnhanceFlags      = 5057
)

// fileFlagGhost is bit 6 of an entry in tagFileFlags, per spec.md §4.B.
const fileFlagGhost = 1 << 6

// modeTypeMask/modeDir identify directory entries in tagFileModes.
const (
	modeTypeMask = 0xF000
	modeDir      = 0x4000
)
