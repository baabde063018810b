package backend

// ArgField names one field of fasttext_args_t.
type ArgField int

const (
	ArgInput ArgField = iota
	ArgOutput
	ArgLabel
	ArgPretrainedVectors

	ArgLR
	ArgT

	ArgLRUpdateRate
	ArgDim
	ArgWS
	ArgEpoch
	ArgMinCount
	ArgMinCountLabel
	ArgNeg
	ArgWordNgrams
	ArgLoss
	ArgModel
	ArgBucket
	ArgMinn
	ArgMaxn
	ArgThread
	ArgVerbose
	ArgSaveOutput
	ArgQOut
	ArgRetrain
	ArgQNorm
	ArgCutoff
	ArgDSub
)

// TrainModels lists the model names accepted by fasttext_train. The engine
// silently falls back to "sg" for anything else, so callers validate first.
var TrainModels = []string{"sup", "cbow", "sg"}

func validTrainModel(name string) bool {
	for _, m := range TrainModels {
		if m == name {
			return true
		}
	}
	return false
}
