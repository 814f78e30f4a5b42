package services

const studyPayload = `{
  "name": "Ethanol; LC-ESI-QTOF; MS2",
  "url": "https://massbank.eu/MassBank/RecordDisplay?id=MSBNK-Test-TE000001",
  "description": "Mass spectrum of ethanol",
  "publisher": "MassBank",
  "measurementTechnique": "Mass Spectrometry",
  "datePublished": "2024-01-01T10:00:00+02:00",
  "dateCreated": "not a date",
  "isPartOf": {
    "citation": [
      {"author": [{"name": "Alice"}, {"name": "Bob"}]},
      {"author": "Carol"}
    ]
  },
  "about": [
    {
      "name": "Ethanol",
      "url": "https://pubchem.ncbi.nlm.nih.gov/compound/702",
      "inChI": "InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3",
      "inChIKey": "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
      "smiles": "CCO",
      "molecularFormula": "C2H6O",
      "monoisotopicMolecularWeight": "46.0419",
      "alternateName": ["Ethyl alcohol", "Alcohol"]
    }
  ]
}`
