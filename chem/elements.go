package chem

// element hält Massen eines Elements: monoisotopisch (häufigstes Isotop) und mittlere Atommasse.
// Für Elemente ohne stabile Isotope steht das langlebigste Isotop in beiden Feldern.
type element struct {
	mono    float64
	average float64
}

// Quelle: IUPAC/NIST (AME), gerundet auf die für Massenspektren übliche Genauigkeit.
var elements = map[string]element{
	"H":  {1.00782503207, 1.008},
	"D":  {2.0141017778, 2.014},
	"He": {4.00260325415, 4.002602},
	"Li": {7.016004548, 6.94},
	"Be": {9.0121831, 9.0121831},
	"B":  {11.0093054, 10.81},
	"C":  {12.0, 12.011},
	"N":  {14.0030740048, 14.007},
	"O":  {15.99491461956, 15.999},
	"F":  {18.99840322, 18.998403163},
	"Ne": {19.9924401762, 20.1797},
	"Na": {22.9897692809, 22.98976928},
	"Mg": {23.985041700, 24.305},
	"Al": {26.98153863, 26.9815385},
	"Si": {27.9769265325, 28.085},
	"P":  {30.97376163, 30.973761998},
	"S":  {31.97207100, 32.06},
	"Cl": {34.96885268, 35.45},
	"Ar": {39.9623831237, 39.948},
	"K":  {38.96370668, 39.0983},
	"Ca": {39.96259098, 40.078},
	"Sc": {44.95590828, 44.955908},
	"Ti": {47.9479463, 47.867},
	"V":  {50.9439570, 50.9415},
	"Cr": {51.9405075, 51.9961},
	"Mn": {54.9380451, 54.938044},
	"Fe": {55.9349375, 55.845},
	"Co": {58.9331950, 58.933194},
	"Ni": {57.9353429, 58.6934},
	"Cu": {62.9295975, 63.546},
	"Zn": {63.9291422, 65.38},
	"Ga": {68.9255736, 69.723},
	"Ge": {73.9211778, 72.630},
	"As": {74.9215965, 74.921595},
	"Se": {79.9165213, 78.971},
	"Br": {78.9183371, 79.904},
	"Kr": {83.9114977282, 83.798},
	"Rb": {84.911789738, 85.4678},
	"Sr": {87.9056121, 87.62},
	"Y":  {88.9058403, 88.90584},
	"Zr": {89.9046977, 91.224},
	"Nb": {92.9063730, 92.90637},
	"Mo": {97.9054082, 95.95},
	"Tc": {97.9072124, 97.9072124},
	"Ru": {101.9043493, 101.07},
	"Rh": {102.905504, 102.90550},
	"Pd": {105.903486, 106.42},
	"Ag": {106.905097, 107.8682},
	"Cd": {113.9033585, 112.414},
	"In": {114.903878776, 114.818},
	"Sn": {119.9021947, 118.710},
	"Sb": {120.9038157, 121.760},
	"Te": {129.9062244, 127.60},
	"I":  {126.904473, 126.90447},
	"Xe": {131.9041550856, 131.293},
	"Cs": {132.905451933, 132.90545196},
	"Ba": {137.9052472, 137.327},
	"La": {138.9063563, 138.90547},
	"Ce": {139.9054431, 140.116},
	"Pr": {140.9076576, 140.90766},
	"Nd": {141.9077290, 144.242},
	"Pm": {144.9127559, 144.9127559},
	"Sm": {151.9197397, 150.36},
	"Eu": {152.9212380, 151.964},
	"Gd": {157.9241039, 157.25},
	"Tb": {158.9253547, 158.92535},
	"Dy": {163.9291819, 162.500},
	"Ho": {164.9303288, 164.93033},
	"Er": {165.9302995, 167.259},
	"Tm": {168.9342179, 168.93422},
	"Yb": {173.9388664, 173.045},
	"Lu": {174.9407752, 174.9668},
	"Hf": {179.9465570, 178.49},
	"Ta": {180.9479958, 180.94788},
	"W":  {183.95093092, 183.84},
	"Re": {186.9557501, 186.207},
	"Os": {191.9614770, 190.23},
	"Ir": {192.9629216, 192.217},
	"Pt": {194.9647911, 195.084},
	"Au": {196.9665687, 196.966569},
	"Hg": {201.970643, 200.592},
	"Tl": {204.9744275, 204.38},
	"Pb": {207.9766521, 207.2},
	"Bi": {208.9803987, 208.98040},
	"Po": {208.9824308, 208.9824308},
	"At": {209.9871479, 209.9871479},
	"Rn": {222.0175782, 222.0175782},
	"Fr": {223.0197360, 223.0197360},
	"Ra": {226.0254103, 226.0254103},
	"Ac": {227.0277523, 227.0277523},
	"Th": {232.0380558, 232.0377},
	"Pa": {231.0358842, 231.03588},
	"U":  {238.0507882, 238.02891},
	"Np": {237.0481736, 237.0481736},
	"Pu": {244.0642053, 244.0642053},
	"Am": {243.0613813, 243.0613813},
	"Cm": {247.0703541, 247.0703541},
	"Bk": {247.0703073, 247.0703073},
	"Cf": {251.0795886, 251.0795886},
	"Es": {252.082980, 252.082980},
	"Fm": {257.0951061, 257.0951061},
	"Md": {258.0984315, 258.0984315},
	"No": {259.10103, 259.10103},
	"Lr": {262.10961, 262.10961},
	"Rf": {267.12179, 267.12179},
	"Db": {268.12567, 268.12567},
	"Sg": {269.12863, 269.12863},
	"Bh": {270.13336, 270.13336},
	"Hs": {269.13375, 269.13375},
	"Mt": {278.15631, 278.15631},
	"Ds": {281.16451, 281.16451},
	"Rg": {282.16912, 282.16912},
	"Cn": {285.17712, 285.17712},
	"Nh": {286.18221, 286.18221},
	"Fl": {289.19042, 289.19042},
	"Mc": {290.19598, 290.19598},
	"Lv": {293.20449, 293.20449},
	"Ts": {294.21046, 294.21046},
	"Og": {294.21392, 294.21392},
}

// KnownElement meldet, ob für das Symbol Massen hinterlegt sind.
func KnownElement(symbol string) bool {
	_, ok := elements[symbol]
	return ok
}
