// Copyright (c) 2020-2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package radiomodel

import "math"

// default radio & simulation parameters
const (
	defaultNoiseFloorIndoorDbm DbValue = -95.0 // Indoor model ambient noise floor (dBm)
	defaultMeterPerUnit        float64 = 0.10  // Default distance equivalent in meters of one grid/pixel distance unit.
)

// RadioModelParams stores model parameters for the radio model.
type RadioModelParams struct {
	MeterPerUnit      float64 // the distance in meters, equivalent to a single distance unit(pixel)
	IsDiscLimit       bool    // If true, RF signal Tx range is limited to the RadioRange set for each node
	ExponentDb        DbValue // the exponent (dB) in the regular/LOS model
	FixedLossDb       DbValue // the fixed loss (dB) term in the regular/LOS model
	NlosExponentDb    DbValue // the exponent (dB) in the NLOS model
	NlosFixedLossDb   DbValue // the fixed loss (dB) term in the NLOS model
	NoiseFloorDbm     DbValue // the noise floor (ambient noise, in dBm)
	SnrMinThresholdDb DbValue // the minimal value an SNR/SINR should be, to have a non-zero frame success probability.
}

func newRadioModelParams() *RadioModelParams {
	return &RadioModelParams{
		MeterPerUnit:  defaultMeterPerUnit,
		NoiseFloorDbm: defaultNoiseFloorIndoorDbm,
	}
}

// custom parameter rounding function
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}

// ITU-T model
func setIndoorModelParamsItu(params *RadioModelParams) {
	params.ExponentDb = 30.0
	params.FixedLossDb = paround(20.0*math.Log10(2400) - 28.0)
}

// see 3GPP TR 38.901 V17.0.0, Table 7.4.1-1: Pathloss models.
func setIndoorModelParams3gpp(params *RadioModelParams) {
	params.ExponentDb = 17.3
	params.FixedLossDb = paround(32.4 + 20*math.Log10(2.4))
	params.NlosExponentDb = 38.3
	params.NlosFixedLossDb = paround(17.3 + 24.9*math.Log10(2.4))
	params.SnrMinThresholdDb = -4.0
}

// experimental outdoor model with LoS
func setOutdoorModelParams(params *RadioModelParams) {
	params.MeterPerUnit = 0.5
	params.ExponentDb = 17.3
	params.FixedLossDb = paround(32.4 + 20*math.Log10(2.4))
	params.SnrMinThresholdDb = -4.0
}

// computeIndoorRssiItu computes the RSSI for a receiver at distance dist, using a simple indoor exponent loss model.
// See https://en.wikipedia.org/wiki/ITU_model_for_indoor_attenuation
func computeIndoorRssiItu(dist float64, txPower DbValue, modelParams *RadioModelParams) DbValue {
	pathloss := 0.0
	distMeters := dist * modelParams.MeterPerUnit
	if distMeters >= 0.01 {
		pathloss = modelParams.ExponentDb*math.Log10(distMeters) + modelParams.FixedLossDb
		if pathloss < 0.0 {
			pathloss = 0.0
		}
	}
	return txPower - pathloss
}

// computeIndoorRssi3gpp computes the RSSI for a receiver at distance dist, using the Indoor/Office 3GPP
// model defined in 3GPP TR 38.901 V17.0.0, Table 7.4.1-1: Pathloss models.
func computeIndoorRssi3gpp(dist float64, txPower DbValue, modelParams *RadioModelParams) DbValue {
	pathloss := 0.0
	distMeters := dist * modelParams.MeterPerUnit
	if distMeters >= 0.01 {
		pathloss = modelParams.ExponentDb*math.Log10(distMeters) + modelParams.FixedLossDb
		if pathloss < 0.0 {
			pathloss = 0.0
		}
		if modelParams.NlosExponentDb > 0.0 {
			pathlossNLOS := modelParams.NlosExponentDb*math.Log10(distMeters) + modelParams.NlosFixedLossDb
			pathloss = math.Max(pathloss, pathlossNLOS)
		}
	}
	return txPower - pathloss
}

// reference: IEEE 802.15.4-2006,E.4.1.8 Bit Error Rate (BER) calculations
var (
	binomialCoeff = []float64{120, -560, 1820, -4368, 8008, -11440, 12870, -11440, 8008, -4368, 1820, -560, 120, -16, 1}
)

func computePacketSuccessRate(sirDb DbValue, frameDurationUs uint64) (float64, int) {
	nbits := float64(frameDurationUs / TimeUsPerBit)
	ber := 0.0
	snr := math.Pow(10, sirDb/10.0)
	for idx, coeff := range binomialCoeff {
		k := float64(idx + 2)
		ber += coeff * math.Exp(20.0*snr*(1.0/(k+1)-1.0))
	}

	ber = ber * 8.0 / 15.0 / 16.0
	ber = math.Max(0, math.Min(ber, 1.0))
	psuc := math.Pow(1.0-ber, nbits)

	return psuc, int(nbits)
}
